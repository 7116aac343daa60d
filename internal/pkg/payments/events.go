package payments

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snegopad/snowpay/app/models"
)

// EventRecorder writes one audit row per inbound notification so
// deliveries can be traced by (provider, kind, reference). It is
// nil-safe: with no database configured it degrades to log output.
type EventRecorder struct {
	db *gorm.DB
}

// NewEventRecorder accepts a nil db.
func NewEventRecorder(db *gorm.DB) *EventRecorder {
	return &EventRecorder{db: db}
}

// Record persists the audit row. Payload fields are stored as JSON with
// the signature removed; secrets never reach the table. Audit failures
// are logged but never fail the webhook response.
func (r *EventRecorder) Record(ctx context.Context, provider, kind, reference string, sigValid bool, fields map[string]string, processingErr error) {
	redacted := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "sig" || k == "sign" {
			continue
		}
		redacted[k] = v
	}

	if r == nil || r.db == nil {
		if processingErr != nil {
			log.Printf("payments: %s %s ref=%s sig_valid=%t err=%v", provider, kind, reference, sigValid, processingErr)
		}
		return
	}

	payload, err := json.Marshal(redacted)
	if err != nil {
		payload = []byte("{}")
	}

	now := time.Now()
	event := models.PaymentWebhookEvent{
		ID:             uuid.NewString(),
		Provider:       provider,
		Kind:           kind,
		Reference:      reference,
		SignatureValid: sigValid,
		PayloadJSON:    string(payload),
		ProcessedAt:    &now,
	}
	if processingErr != nil {
		event.ProcessingError = processingErr.Error()
	}
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		log.Printf("payments: audit record failed for %s %s ref=%s: %v", provider, kind, reference, err)
	}
}
