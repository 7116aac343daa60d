package payments

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func newTestLedger(t *testing.T) (*FileLedger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	l, err := OpenFileLedger(path, 1000)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return l, path
}

func TestFileLedgerOrderIdempotency(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	first, err := l.GetOrCreateOrder(ctx, 555)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.OrderID != 555 || first.AppOrderID != "1000" {
		t.Fatalf("unexpected first record: %+v", first)
	}

	// A redelivered chargeable notification must echo the stored id.
	second, err := l.GetOrCreateOrder(ctx, 555)
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if second.AppOrderID != "1000" {
		t.Fatalf("duplicate delivery allocated a new id: %+v", second)
	}

	next, err := l.GetOrCreateOrder(ctx, 556)
	if err != nil {
		t.Fatalf("next create: %v", err)
	}
	if next.AppOrderID != "1001" {
		t.Fatalf("expected sequence to advance once per distinct id, got %+v", next)
	}
}

func TestFileLedgerSubscriptionKeySpaceIsIndependent(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	order, err := l.GetOrCreateOrder(ctx, 42)
	if err != nil {
		t.Fatalf("order create: %v", err)
	}
	sub, err := l.GetOrCreateSubscription(ctx, 42)
	if err != nil {
		t.Fatalf("subscription create: %v", err)
	}
	if order.AppOrderID == sub.AppOrderID {
		t.Fatalf("order and subscription with the same provider id must get distinct app_order_ids")
	}

	again, err := l.GetOrCreateSubscription(ctx, 42)
	if err != nil {
		t.Fatalf("subscription duplicate: %v", err)
	}
	if again.AppOrderID != sub.AppOrderID {
		t.Fatalf("subscription redelivery allocated a new id")
	}
}

func TestFileLedgerLookupSubscription(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	rec, err := l.LookupSubscription(ctx, 7)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected no record before creation, got %+v", rec)
	}

	created, err := l.GetOrCreateSubscription(ctx, 7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, err = l.LookupSubscription(ctx, 7)
	if err != nil {
		t.Fatalf("lookup after create: %v", err)
	}
	if rec == nil || rec.AppOrderID != created.AppOrderID {
		t.Fatalf("lookup mismatch: %+v vs %+v", rec, created)
	}
}

func TestFileLedgerSurvivesRestart(t *testing.T) {
	l, path := newTestLedger(t)
	ctx := context.Background()

	created, err := l.GetOrCreateOrder(ctx, 555)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := l.GetOrCreateSubscription(ctx, 9); err != nil {
		t.Fatalf("subscription create: %v", err)
	}

	// Reopen the document as a restarted process would.
	reopened, err := OpenFileLedger(path, 1000)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rec, err := reopened.GetOrCreateOrder(ctx, 555)
	if err != nil {
		t.Fatalf("reopened create: %v", err)
	}
	if rec.AppOrderID != created.AppOrderID {
		t.Fatalf("restart lost the order record: got %+v want %+v", rec, created)
	}

	fresh, err := reopened.GetOrCreateOrder(ctx, 777)
	if err != nil {
		t.Fatalf("fresh create: %v", err)
	}
	if fresh.AppOrderID != "1002" {
		t.Fatalf("sequence did not survive restart: %+v", fresh)
	}
}

func TestFileLedgerConcurrentDuplicates(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	const workers = 16
	results := make([]OrderRecord, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			rec, err := l.GetOrCreateOrder(ctx, 555)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = rec
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i].AppOrderID != results[0].AppOrderID {
			t.Fatalf("concurrent duplicates raced to different ids: %q vs %q",
				results[i].AppOrderID, results[0].AppOrderID)
		}
	}
}
