package payments

// Provider names as they appear in webhook audit records and logs.
const (
	ProviderVK = "vk"
	ProviderOK = "ok"
)

// VK notification kinds. The provider appends "_test" for sandbox
// deliveries; the dispatcher strips that suffix before matching.
const (
	KindGetItem                  = "get_item"
	KindGetSubscription          = "get_subscription"
	KindOrderStatusChange        = "order_status_change"
	KindSubscriptionStatusChange = "subscription_status_change"
)

// StatusChargeable means funds are reserved and the merchant must answer
// with a durable app_order_id before the provider completes the charge.
const StatusChargeable = "chargeable"

// CatalogItem is a one-time purchasable product.
type CatalogItem struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title"`
	Price  int    `json:"price"`
}

// SubscriptionPlan is a recurring product definition.
type SubscriptionPlan struct {
	ItemID            string `json:"item_id"`
	Title             string `json:"title"`
	Price             int    `json:"price"`
	PeriodDays        int    `json:"period"`
	TrialDays         int    `json:"trial_duration,omitempty"`
	ExpirationSeconds int    `json:"expiration,omitempty"`
}

// OrderRecord is the ledger's unit of idempotency for one-time purchases.
// It is created exactly once per distinct provider order id and never
// mutated afterwards.
type OrderRecord struct {
	OrderID    int64  `json:"order_id"`
	AppOrderID string `json:"app_order_id"`
}

// SubscriptionRecord mirrors OrderRecord for the independent
// subscription id key space.
type SubscriptionRecord struct {
	SubscriptionID int64  `json:"subscription_id"`
	AppOrderID     string `json:"app_order_id"`
}
