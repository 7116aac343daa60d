package payments

import (
	"strconv"
	"strings"
)

// VKNotification is the typed form of a VK payments webhook after
// boundary validation. Kind carries the production kind; Sandbox marks
// a "*_test" delivery.
type VKNotification struct {
	Kind           string
	Sandbox        bool
	Status         string
	ItemID         string
	OrderID        int64
	SubscriptionID int64
	ItemPrice      *int
}

// ParseVKNotification validates the raw field bag into a typed
// notification. Field requirements depend on the kind: a chargeable
// order needs a numeric order_id, any subscription event a numeric
// subscription_id. Parse failures surface as protocol errors because
// the provider expects them inside a 200 envelope.
func ParseVKNotification(fields map[string]string) (*VKNotification, *VKError) {
	rawKind := fields["notification_type"]
	n := &VKNotification{
		Kind:    strings.TrimSuffix(rawKind, "_test"),
		Sandbox: strings.HasSuffix(rawKind, "_test"),
		Status:  fields["status"],
		ItemID:  fields["item"],
	}
	if n.ItemID == "" {
		n.ItemID = fields["item_id"]
	}

	switch n.Kind {
	case KindOrderStatusChange:
		if n.Status == StatusChargeable {
			id, err := strconv.ParseInt(fields["order_id"], 10, 64)
			if err != nil {
				return nil, &VKError{Code: VKErrBadRequest, Msg: "Invalid order_id"}
			}
			n.OrderID = id
		}
	case KindSubscriptionStatusChange:
		id, err := strconv.ParseInt(fields["subscription_id"], 10, 64)
		if err != nil && n.Status == StatusChargeable {
			return nil, &VKError{Code: VKErrBadRequest, Msg: "Invalid subscription_id"}
		}
		// Non-chargeable statuses are acknowledged regardless; an
		// unparseable id just means no record will be found to echo.
		n.SubscriptionID = id
		if price, err := strconv.Atoi(fields["item_price"]); err == nil {
			n.ItemPrice = &price
		}
	}
	return n, nil
}

// OKNotification is the typed form of an OK callbacks.payment request.
// Amount is nil when the field is absent or non-numeric; the dispatcher
// treats that the same as a mismatch.
type OKNotification struct {
	TransactionID string
	UID           string
	ProductCode   string
	Amount        *int
}

// ParseOKNotification extracts the typed OK notification. It cannot
// fail: OK events without a product are acknowledged, so there is no
// required field at this layer.
func ParseOKNotification(fields map[string]string) *OKNotification {
	n := &OKNotification{
		TransactionID: fields["transaction_id"],
		UID:           fields["uid"],
		ProductCode:   fields["product_code"],
	}
	if amount, err := strconv.Atoi(fields["amount"]); err == nil {
		n.Amount = &amount
	}
	return n
}
