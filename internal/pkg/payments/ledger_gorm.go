package payments

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/snegopad/snowpay/app/models"
)

// GormLedger stores the ledger in MySQL. The single sequence row is
// locked FOR UPDATE before allocating, which serializes concurrent
// creations: duplicate deliveries of the same order id re-read the
// winner's record under the lock instead of allocating a second id.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger seeds the sequence row with startSequence when it does
// not exist yet and returns the ledger.
func NewGormLedger(db *gorm.DB, startSequence int64) (*GormLedger, error) {
	seq := models.LedgerSequence{ID: 1, NextValue: startSequence}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return nil, err
	}
	return &GormLedger{db: db}, nil
}

func (l *GormLedger) GetOrCreateOrder(ctx context.Context, orderID int64) (OrderRecord, error) {
	// Fast path, no lock.
	var row models.PaymentOrder
	err := l.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error
	if err == nil {
		return OrderRecord{OrderID: row.OrderID, AppOrderID: row.AppOrderID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return OrderRecord{}, err
	}

	var rec OrderRecord
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := lockSequence(tx)
		if err != nil {
			return err
		}
		// Re-check under the lock: a concurrent delivery may have won.
		var row models.PaymentOrder
		err = tx.Where("order_id = ?", orderID).First(&row).Error
		if err == nil {
			rec = OrderRecord{OrderID: row.OrderID, AppOrderID: row.AppOrderID}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		appOrderID, err := advanceSequence(tx, seq)
		if err != nil {
			return err
		}
		row = models.PaymentOrder{OrderID: orderID, AppOrderID: appOrderID}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		rec = OrderRecord{OrderID: orderID, AppOrderID: appOrderID}
		return nil
	})
	return rec, err
}

func (l *GormLedger) GetOrCreateSubscription(ctx context.Context, subscriptionID int64) (SubscriptionRecord, error) {
	var row models.PaymentSubscription
	err := l.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).First(&row).Error
	if err == nil {
		return SubscriptionRecord{SubscriptionID: row.SubscriptionID, AppOrderID: row.AppOrderID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return SubscriptionRecord{}, err
	}

	var rec SubscriptionRecord
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := lockSequence(tx)
		if err != nil {
			return err
		}
		var row models.PaymentSubscription
		err = tx.Where("subscription_id = ?", subscriptionID).First(&row).Error
		if err == nil {
			rec = SubscriptionRecord{SubscriptionID: row.SubscriptionID, AppOrderID: row.AppOrderID}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		appOrderID, err := advanceSequence(tx, seq)
		if err != nil {
			return err
		}
		row = models.PaymentSubscription{SubscriptionID: subscriptionID, AppOrderID: appOrderID}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		rec = SubscriptionRecord{SubscriptionID: subscriptionID, AppOrderID: appOrderID}
		return nil
	})
	return rec, err
}

func (l *GormLedger) LookupSubscription(ctx context.Context, subscriptionID int64) (*SubscriptionRecord, error) {
	var row models.PaymentSubscription
	err := l.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &SubscriptionRecord{SubscriptionID: row.SubscriptionID, AppOrderID: row.AppOrderID}, nil
}

func lockSequence(tx *gorm.DB) (*models.LedgerSequence, error) {
	var seq models.LedgerSequence
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&seq, 1).Error; err != nil {
		return nil, err
	}
	return &seq, nil
}

func advanceSequence(tx *gorm.DB, seq *models.LedgerSequence) (string, error) {
	value := seq.NextValue
	if err := tx.Model(&models.LedgerSequence{}).Where("id = ?", seq.ID).
		Update("next_value", value+1).Error; err != nil {
		return "", err
	}
	return strconv.FormatInt(value, 10), nil
}
