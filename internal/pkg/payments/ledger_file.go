package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// ledgerDocument is the on-disk layout. It round-trips losslessly across
// process restarts; map keys are the decimal provider ids.
type ledgerDocument struct {
	NextSequenceID int64                         `json:"next_sequence_id"`
	Orders         map[string]OrderRecord        `json:"orders"`
	Subscriptions  map[string]SubscriptionRecord `json:"subscriptions"`
}

// FileLedger persists the ledger as a single JSON document. A mutex
// enforces the single-writer discipline; every mutation is flushed with
// a write-temp-then-rename before the call returns.
type FileLedger struct {
	mu   sync.Mutex
	path string
	doc  ledgerDocument
}

// OpenFileLedger loads the document at path, creating an empty ledger
// seeded with startSequence when the file does not exist yet.
func OpenFileLedger(path string, startSequence int64) (*FileLedger, error) {
	l := &FileLedger{
		path: path,
		doc: ledgerDocument{
			NextSequenceID: startSequence,
			Orders:         make(map[string]OrderRecord),
			Subscriptions:  make(map[string]SubscriptionRecord),
		},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	if err := json.Unmarshal(data, &l.doc); err != nil {
		return nil, fmt.Errorf("parse ledger file %s: %w", path, err)
	}
	if l.doc.Orders == nil {
		l.doc.Orders = make(map[string]OrderRecord)
	}
	if l.doc.Subscriptions == nil {
		l.doc.Subscriptions = make(map[string]SubscriptionRecord)
	}
	if l.doc.NextSequenceID < startSequence {
		l.doc.NextSequenceID = startSequence
	}
	return l, nil
}

func (l *FileLedger) GetOrCreateOrder(ctx context.Context, orderID int64) (OrderRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := strconv.FormatInt(orderID, 10)
	if rec, ok := l.doc.Orders[key]; ok {
		return rec, nil
	}

	rec := OrderRecord{OrderID: orderID, AppOrderID: l.nextAppOrderIDLocked()}
	l.doc.Orders[key] = rec
	if err := l.persistLocked(); err != nil {
		delete(l.doc.Orders, key)
		l.doc.NextSequenceID--
		return OrderRecord{}, err
	}
	return rec, nil
}

func (l *FileLedger) GetOrCreateSubscription(ctx context.Context, subscriptionID int64) (SubscriptionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := strconv.FormatInt(subscriptionID, 10)
	if rec, ok := l.doc.Subscriptions[key]; ok {
		return rec, nil
	}

	rec := SubscriptionRecord{SubscriptionID: subscriptionID, AppOrderID: l.nextAppOrderIDLocked()}
	l.doc.Subscriptions[key] = rec
	if err := l.persistLocked(); err != nil {
		delete(l.doc.Subscriptions, key)
		l.doc.NextSequenceID--
		return SubscriptionRecord{}, err
	}
	return rec, nil
}

func (l *FileLedger) LookupSubscription(ctx context.Context, subscriptionID int64) (*SubscriptionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.doc.Subscriptions[strconv.FormatInt(subscriptionID, 10)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (l *FileLedger) nextAppOrderIDLocked() string {
	id := l.doc.NextSequenceID
	l.doc.NextSequenceID++
	return strconv.FormatInt(id, 10)
}

func (l *FileLedger) persistLocked() error {
	data, err := json.MarshalIndent(&l.doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}
