package payments

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	l, err := OpenFileLedger(filepath.Join(t.TempDir(), "ledger.json"), 1000)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return NewDispatcher(DefaultCatalog(), l)
}

func dispatchVK(d *Dispatcher, fields map[string]string) *VKEnvelope {
	n, vkErr := ParseVKNotification(fields)
	if vkErr != nil {
		return &VKEnvelope{Error: vkErr}
	}
	return d.DispatchVK(context.Background(), n)
}

func TestDispatchVKGetItem(t *testing.T) {
	d := newTestDispatcher(t)

	env := dispatchVK(d, map[string]string{
		"notification_type": "get_item",
		"item":              "convert_all_1",
	})
	if env.Error != nil {
		t.Fatalf("unexpected error: %+v", env.Error)
	}

	body, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"response":{"item_id":"convert_all_1","title":"Превратить все снежинки","price":1}}`
	if string(body) != want {
		t.Fatalf("envelope mismatch:\n got %s\nwant %s", body, want)
	}
}

func TestDispatchVKGetItemUnknown(t *testing.T) {
	d := newTestDispatcher(t)

	env := dispatchVK(d, map[string]string{
		"notification_type": "get_item",
		"item":              "no_such_item",
	})
	if env.Error == nil || env.Error.Code != VKErrItemNotFound {
		t.Fatalf("expected item-not-found error, got %+v", env)
	}
	if env.Response != nil {
		t.Fatalf("error envelope must not carry a response")
	}
}

func TestDispatchVKGetSubscription(t *testing.T) {
	d := newTestDispatcher(t)

	env := dispatchVK(d, map[string]string{
		"notification_type": "get_subscription",
		"item":              "winter_pass_30",
	})
	if env.Error != nil {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
	plan, ok := env.Response.(SubscriptionPlan)
	if !ok {
		t.Fatalf("unexpected response type %T", env.Response)
	}
	if plan.PeriodDays != 30 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestDispatchVKOrderChargeableIsIdempotent(t *testing.T) {
	d := newTestDispatcher(t)
	fields := map[string]string{
		"notification_type": "order_status_change",
		"status":            "chargeable",
		"order_id":          "555",
	}

	first := dispatchVK(d, fields)
	payload, ok := first.Response.(VKOrderPayload)
	if !ok {
		t.Fatalf("unexpected response %+v", first)
	}
	if payload.OrderID != 555 || payload.AppOrderID != "1000" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	second := dispatchVK(d, fields)
	if second.Response.(VKOrderPayload).AppOrderID != "1000" {
		t.Fatalf("redelivery changed app_order_id: %+v", second.Response)
	}
}

func TestDispatchVKOrderOtherStatusAcknowledges(t *testing.T) {
	d := newTestDispatcher(t)

	for _, status := range []string{"paid", "cancelled", "refunded"} {
		env := dispatchVK(d, map[string]string{
			"notification_type": "order_status_change",
			"status":            status,
			"order_id":          "555",
		})
		if env.Error != nil {
			t.Fatalf("status %q: unexpected error %+v", status, env.Error)
		}
		if env.Response != 1 {
			t.Fatalf("status %q: expected plain acknowledgement, got %+v", status, env.Response)
		}
	}

	// No ledger mutation happened: the next chargeable still gets the
	// first sequence value.
	env := dispatchVK(d, map[string]string{
		"notification_type": "order_status_change",
		"status":            "chargeable",
		"order_id":          "555",
	})
	if env.Response.(VKOrderPayload).AppOrderID != "1000" {
		t.Fatalf("acknowledgements must not consume sequence ids")
	}
}

func TestDispatchVKSandboxKindsMatchProduction(t *testing.T) {
	d := newTestDispatcher(t)

	env := dispatchVK(d, map[string]string{
		"notification_type": "get_item_test",
		"item":              "convert_all_1",
	})
	if env.Error != nil {
		t.Fatalf("sandbox kind must be handled like production: %+v", env.Error)
	}

	env = dispatchVK(d, map[string]string{
		"notification_type": "order_status_change_test",
		"status":            "chargeable",
		"order_id":          "900",
	})
	if _, ok := env.Response.(VKOrderPayload); !ok {
		t.Fatalf("sandbox chargeable must create a record, got %+v", env)
	}
}

func TestDispatchVKSubscriptionChargeable(t *testing.T) {
	d := newTestDispatcher(t)

	env := dispatchVK(d, map[string]string{
		"notification_type": "subscription_status_change",
		"status":            "chargeable",
		"subscription_id":   "31337",
		"item_id":           "winter_pass_30",
		"item_price":        "5",
	})
	if env.Error != nil {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
	payload := env.Response.(VKSubscriptionPayload)
	if payload.SubscriptionID != 31337 || payload.AppOrderID != "1000" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDispatchVKSubscriptionPriceMismatchIsRejected(t *testing.T) {
	d := newTestDispatcher(t)

	// Valid signature, wrong price: tampering, never silently fixed.
	env := dispatchVK(d, map[string]string{
		"notification_type": "subscription_status_change",
		"status":            "chargeable",
		"subscription_id":   "31337",
		"item_id":           "winter_pass_30",
		"item_price":        "1",
	})
	if env.Error == nil || env.Error.Code != VKErrBadRequest {
		t.Fatalf("expected price mismatch rejection, got %+v", env)
	}

	// Missing price is treated the same way.
	env = dispatchVK(d, map[string]string{
		"notification_type": "subscription_status_change",
		"status":            "chargeable",
		"subscription_id":   "31337",
		"item_id":           "winter_pass_30",
	})
	if env.Error == nil {
		t.Fatalf("expected missing price rejection, got %+v", env)
	}
}

func TestDispatchVKSubscriptionOtherStatusEchoesKnownRecord(t *testing.T) {
	d := newTestDispatcher(t)

	// Unknown subscription: plain acknowledgement.
	env := dispatchVK(d, map[string]string{
		"notification_type": "subscription_status_change",
		"status":            "cancelled",
		"subscription_id":   "5",
	})
	if env.Response != 1 {
		t.Fatalf("expected plain ack for unknown subscription, got %+v", env.Response)
	}

	// Once chargeable assigned an id, later statuses echo it.
	dispatchVK(d, map[string]string{
		"notification_type": "subscription_status_change",
		"status":            "chargeable",
		"subscription_id":   "5",
		"item_id":           "winter_pass_30",
		"item_price":        "5",
	})
	env = dispatchVK(d, map[string]string{
		"notification_type": "subscription_status_change",
		"status":            "cancelled",
		"subscription_id":   "5",
	})
	payload, ok := env.Response.(VKSubscriptionPayload)
	if !ok || payload.AppOrderID != "1000" {
		t.Fatalf("expected echoed record, got %+v", env.Response)
	}
}

func TestDispatchVKSubscriptionCancelledWithoutIDAcknowledges(t *testing.T) {
	d := newTestDispatcher(t)

	env := dispatchVK(d, map[string]string{
		"notification_type": "subscription_status_change",
		"status":            "cancelled",
	})
	if env.Error != nil || env.Response != 1 {
		t.Fatalf("expected plain ack for non-chargeable event without id, got %+v", env)
	}
}

func TestDispatchVKUnrecognizedKindAcknowledges(t *testing.T) {
	d := newTestDispatcher(t)

	env := dispatchVK(d, map[string]string{
		"notification_type": "user_subscription_cancelled",
	})
	if env.Error != nil || env.Response != 1 {
		t.Fatalf("providers require 2xx acks for unhandled kinds, got %+v", env)
	}
}

func TestDispatchOK(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	if err := d.DispatchOK(ctx, ParseOKNotification(map[string]string{
		"product_code": "convert_all_1",
		"amount":       "1",
	})); err != nil {
		t.Fatalf("expected matching amount to pass, got %+v", err)
	}

	err := d.DispatchOK(ctx, ParseOKNotification(map[string]string{
		"product_code": "convert_all_1",
		"amount":       "2",
	}))
	if err == nil || err.Code != OKErrInvalidPayment {
		t.Fatalf("expected amount mismatch rejection, got %+v", err)
	}

	err = d.DispatchOK(ctx, ParseOKNotification(map[string]string{
		"product_code": "bogus",
		"amount":       "1",
	}))
	if err == nil || err.Code != OKErrInvalidPayment {
		t.Fatalf("expected unknown product rejection, got %+v", err)
	}

	// Events without a product code are acknowledged.
	if err := d.DispatchOK(ctx, ParseOKNotification(map[string]string{"uid": "1"})); err != nil {
		t.Fatalf("expected product-less event to pass, got %+v", err)
	}
}
