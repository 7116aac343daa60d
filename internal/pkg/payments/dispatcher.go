package payments

import (
	"context"
	"log"
)

// VKEnvelope is the 200-response body shape the VK payments protocol
// mandates: exactly one of "response" or "error" is present.
type VKEnvelope struct {
	Response any      `json:"response,omitempty"`
	Error    *VKError `json:"error,omitempty"`
}

// VKOrderPayload echoes the durable record for a chargeable order.
type VKOrderPayload struct {
	OrderID    int64  `json:"order_id"`
	AppOrderID string `json:"app_order_id"`
}

// VKSubscriptionPayload echoes the durable record for a chargeable
// subscription event.
type VKSubscriptionPayload struct {
	SubscriptionID int64  `json:"subscription_id"`
	AppOrderID     string `json:"app_order_id"`
}

// Dispatcher routes an authenticated notification to its handling rule
// based on (provider, kind, status). It is stateless across requests
// except through the injected ledger.
type Dispatcher struct {
	catalog *Catalog
	ledger  Ledger
}

// NewDispatcher wires the dispatcher to its catalog and ledger.
func NewDispatcher(catalog *Catalog, ledger Ledger) *Dispatcher {
	return &Dispatcher{catalog: catalog, ledger: ledger}
}

// DispatchVK handles a signature-verified VK notification and returns
// the envelope to serialize. Sandbox deliveries are handled identically
// to their production counterparts. Unrecognized kinds get a generic
// acknowledgement because the provider requires a 2xx even for
// notifications this system does not act on.
func (d *Dispatcher) DispatchVK(ctx context.Context, n *VKNotification) *VKEnvelope {
	switch n.Kind {
	case KindGetItem:
		return d.vkGetItem(n)
	case KindGetSubscription:
		return d.vkGetSubscription(n)
	case KindOrderStatusChange:
		return d.vkOrderStatusChange(ctx, n)
	case KindSubscriptionStatusChange:
		return d.vkSubscriptionStatusChange(ctx, n)
	default:
		return vkAck()
	}
}

func (d *Dispatcher) vkGetItem(n *VKNotification) *VKEnvelope {
	item, ok := d.catalog.ResolveItem(n.ItemID)
	if !ok {
		log.Printf("payments: vk get_item unknown item %q", n.ItemID)
		return vkError(VKErrItemNotFound, "Item not found")
	}
	return &VKEnvelope{Response: item}
}

func (d *Dispatcher) vkGetSubscription(n *VKNotification) *VKEnvelope {
	plan, ok := d.catalog.ResolvePlan(n.ItemID)
	if !ok {
		log.Printf("payments: vk get_subscription unknown plan %q", n.ItemID)
		return vkError(VKErrItemNotFound, "Item not found")
	}
	return &VKEnvelope{Response: plan}
}

func (d *Dispatcher) vkOrderStatusChange(ctx context.Context, n *VKNotification) *VKEnvelope {
	if n.Status != StatusChargeable {
		// paid / cancelled / refunded: acknowledge, no ledger mutation.
		return vkAck()
	}

	rec, err := d.ledger.GetOrCreateOrder(ctx, n.OrderID)
	if err != nil {
		log.Printf("payments: ledger failure for order %d: %v", n.OrderID, err)
		return vkError(VKErrCommon, "Order could not be recorded")
	}
	return &VKEnvelope{Response: VKOrderPayload{OrderID: rec.OrderID, AppOrderID: rec.AppOrderID}}
}

func (d *Dispatcher) vkSubscriptionStatusChange(ctx context.Context, n *VKNotification) *VKEnvelope {
	if n.Status != StatusChargeable {
		rec, err := d.ledger.LookupSubscription(ctx, n.SubscriptionID)
		if err != nil {
			log.Printf("payments: ledger lookup failure for subscription %d: %v", n.SubscriptionID, err)
			return vkError(VKErrCommon, "Ledger unavailable")
		}
		if rec != nil {
			return &VKEnvelope{Response: VKSubscriptionPayload{
				SubscriptionID: rec.SubscriptionID,
				AppOrderID:     rec.AppOrderID,
			}}
		}
		return vkAck()
	}

	plan, ok := d.catalog.ResolvePlan(n.ItemID)
	if !ok {
		log.Printf("payments: vk subscription_status_change unknown plan %q", n.ItemID)
		return vkError(VKErrItemNotFound, "Item not found")
	}
	// A claimed price that differs from the catalog is tampering, never
	// something to silently fix. A missing price is treated the same.
	if n.ItemPrice == nil || *n.ItemPrice != plan.Price {
		log.Printf("payments: vk subscription %d price mismatch: want %d", n.SubscriptionID, plan.Price)
		return vkError(VKErrBadRequest, "Price mismatch")
	}

	rec, err := d.ledger.GetOrCreateSubscription(ctx, n.SubscriptionID)
	if err != nil {
		log.Printf("payments: ledger failure for subscription %d: %v", n.SubscriptionID, err)
		return vkError(VKErrCommon, "Subscription could not be recorded")
	}
	return &VKEnvelope{Response: VKSubscriptionPayload{
		SubscriptionID: rec.SubscriptionID,
		AppOrderID:     rec.AppOrderID,
	}}
}

// DispatchOK validates an OK callbacks.payment request. A nil return
// means the transaction is accepted and the caller must answer with the
// JSON literal `true`. The amount must equal the catalog price exactly;
// a mismatch is treated as an invalid payment.
func (d *Dispatcher) DispatchOK(ctx context.Context, n *OKNotification) *OKError {
	if n.ProductCode == "" {
		// Some subscription events carry no product; acknowledge.
		return nil
	}

	item, ok := d.catalog.ResolveItem(n.ProductCode)
	if !ok {
		log.Printf("payments: ok callback unknown product_code %q", n.ProductCode)
		return &OKError{Status: 400, Code: OKErrInvalidPayment, Msg: "CALLBACK_INVALID_PAYMENT : Unknown product_code"}
	}

	if n.Amount == nil || *n.Amount != item.Price {
		log.Printf("payments: ok callback amount mismatch for %q: want %d", n.ProductCode, item.Price)
		return &OKError{Status: 400, Code: OKErrInvalidPayment, Msg: "CALLBACK_INVALID_PAYMENT : Amount mismatch"}
	}
	return nil
}

func vkAck() *VKEnvelope {
	return &VKEnvelope{Response: 1}
}

func vkError(code int, msg string) *VKEnvelope {
	return &VKEnvelope{Error: &VKError{Code: code, Msg: msg}}
}
