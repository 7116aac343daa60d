package models

import "time"

// PaymentOrder maps a provider order id to the merchant-issued
// app_order_id. Rows are created exactly once per order id and never
// updated; the unique index is what makes duplicate webhook deliveries
// collapse onto the same record.
type PaymentOrder struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    int64     `gorm:"not null;uniqueIndex:ux_payment_orders_order_id" json:"order_id"`
	AppOrderID string    `gorm:"type:varchar(32);not null" json:"app_order_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PaymentSubscription is the subscription-id counterpart of PaymentOrder,
// with its own independent key space.
type PaymentSubscription struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubscriptionID int64     `gorm:"not null;uniqueIndex:ux_payment_subscriptions_subscription_id" json:"subscription_id"`
	AppOrderID     string    `gorm:"type:varchar(32);not null" json:"app_order_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// LedgerSequence holds the monotonic counter that supplies the numeric
// component of generated app_order_id values. A single row, locked FOR
// UPDATE while allocating.
type LedgerSequence struct {
	ID        uint  `gorm:"primaryKey"`
	NextValue int64 `gorm:"not null"`
}
