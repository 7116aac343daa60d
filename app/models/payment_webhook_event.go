package models

import "time"

// PaymentWebhookEvent is the audit record for every inbound payment
// notification, stored so a failed or suspicious delivery can be traced
// by (provider, kind, reference) without logging secrets.
type PaymentWebhookEvent struct {
	ID              string     `gorm:"type:char(36);primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index" json:"provider"`
	Kind            string     `gorm:"type:varchar(64);not null;index" json:"kind"`
	Reference       string     `gorm:"type:varchar(64);not null;default:''" json:"reference"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
