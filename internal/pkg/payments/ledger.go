package payments

import "context"

// Ledger is the durable order-id to app_order_id mapping that makes
// webhook redelivery idempotent. Implementations must commit every
// mutation before returning: the provider treats our response as
// confirmation that the id was recorded.
//
// Invariant: once an id has been observed chargeable, every later call
// for the same id returns the originally stored app_order_id, never a
// newly allocated one.
type Ledger interface {
	// GetOrCreateOrder returns the existing record for orderID or
	// atomically allocates the next sequence id, persists a new record
	// and returns it. Safe under concurrent duplicate deliveries.
	GetOrCreateOrder(ctx context.Context, orderID int64) (OrderRecord, error)

	// GetOrCreateSubscription is the same contract over the independent
	// subscription id key space.
	GetOrCreateSubscription(ctx context.Context, subscriptionID int64) (SubscriptionRecord, error)

	// LookupSubscription is a read-only probe used by non-chargeable
	// status acknowledgements. Returns nil when no record exists.
	LookupSubscription(ctx context.Context, subscriptionID int64) (*SubscriptionRecord, error)
}
