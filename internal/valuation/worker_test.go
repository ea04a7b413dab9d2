package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledger-service/internal/ledger"
	"ledger-service/internal/model"
)

type stubUnits struct {
	units []model.Unit
	err   error
}

func (s *stubUnits) ListUnitsByProperty(ctx context.Context, orgID string, propertyID uint) ([]model.Unit, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Unit
	for _, u := range s.units {
		if u.OrgID == orgID && u.PropertyID == propertyID {
			out = append(out, u)
		}
	}
	return out, nil
}

func seedCredits(t *testing.T, store *ledger.MemoryStore, txs []model.OwnershipCreditTransaction) {
	t.Helper()
	for i := range txs {
		if err := store.Append(context.Background(), &txs[i]); err != nil {
			t.Fatalf("seed append failed: %v", err)
		}
	}
}

func TestProcessBuildsSnapshot(t *testing.T) {
	units := &stubUnits{units: []model.Unit{
		{ID: 10, PropertyID: 7, OrgID: "org-a", UnitNumber: "1A", Rent: 1000},
		{ID: 11, PropertyID: 7, OrgID: "org-a", UnitNumber: "1B", Rent: 1500},
		{ID: 12, PropertyID: 8, OrgID: "org-a", UnitNumber: "2A", Rent: 9000},
	}}
	store := ledger.NewMemoryStore()
	seedCredits(t, store, []model.OwnershipCreditTransaction{
		{OrgID: "org-a", TenantID: 1, UnitID: 10, Type: model.TxEarn, Amount: 200},
		{OrgID: "org-a", TenantID: 2, UnitID: 11, Type: model.TxEarn, Amount: 150},
		{OrgID: "org-a", TenantID: 2, UnitID: 11, Type: model.TxRedeem, Amount: 50},
		// Different property; must not leak into the snapshot.
		{OrgID: "org-a", TenantID: 4, UnitID: 12, Type: model.TxEarn, Amount: 5000},
	})
	snapshots := NewMemorySnapshotStore()
	pool := NewPool(NewMemoryQueue(testQueueConfig()), units, store, snapshots, 1, time.Millisecond, nil)

	snapshot, err := pool.Process(context.Background(), &model.ValuationJob{ID: 1, PropertyID: 7, OrgID: "org-a"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if snapshot.UnitCount != 2 {
		t.Fatalf("expected 2 units, got %d", snapshot.UnitCount)
	}
	if snapshot.TotalRent != 2500 {
		t.Fatalf("expected total rent 2500, got %d", snapshot.TotalRent)
	}
	if snapshot.TotalCredits != 300 {
		t.Fatalf("expected total credits 300, got %d", snapshot.TotalCredits)
	}

	stored := snapshots.All()
	if len(stored) != 1 {
		t.Fatalf("expected 1 persisted snapshot, got %d", len(stored))
	}
	if stored[0].PropertyID != 7 || stored[0].OrgID != "org-a" {
		t.Fatalf("snapshot carries wrong identity: %+v", stored[0])
	}
}

func TestProcessEmptyProperty(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	pool := NewPool(NewMemoryQueue(testQueueConfig()), &stubUnits{}, ledger.NewMemoryStore(), snapshots, 1, time.Millisecond, nil)

	snapshot, err := pool.Process(context.Background(), &model.ValuationJob{ID: 1, PropertyID: 7, OrgID: "org-a"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if snapshot.UnitCount != 0 || snapshot.TotalRent != 0 || snapshot.TotalCredits != 0 {
		t.Fatalf("expected zero snapshot for empty property, got %+v", snapshot)
	}
}

func TestProcessFailureLeavesNoSnapshot(t *testing.T) {
	units := &stubUnits{err: errors.New("db unavailable")}
	snapshots := NewMemorySnapshotStore()
	pool := NewPool(NewMemoryQueue(testQueueConfig()), units, ledger.NewMemoryStore(), snapshots, 1, time.Millisecond, nil)

	if _, err := pool.Process(context.Background(), &model.ValuationJob{ID: 1, PropertyID: 7, OrgID: "org-a"}); err == nil {
		t.Fatal("expected Process to fail")
	}
	if len(snapshots.All()) != 0 {
		t.Fatal("failed job left a partial snapshot")
	}
}

func TestHandleRetriesThenFailsPermanently(t *testing.T) {
	cfg := testQueueConfig()
	cfg.MaxAttempts = 2
	cfg.BackoffBase = time.Millisecond
	queue := NewMemoryQueue(cfg)
	units := &stubUnits{err: errors.New("db unavailable")}
	snapshots := NewMemorySnapshotStore()
	pool := NewPool(queue, units, ledger.NewMemoryStore(), snapshots, 1, time.Millisecond, nil)
	ctx := context.Background()

	job, _ := queue.Enqueue(ctx, 7, "org-a")

	claimed, _ := queue.Claim(ctx)
	pool.handle(ctx, pool.log, claimed)
	if stored := queue.Job(job.ID); stored.Status != model.JobQueued {
		t.Fatalf("expected retry after first failure, got %s", stored.Status)
	}

	queue.mu.Lock()
	queue.find(job.ID).RunAt = time.Now().Add(-time.Second)
	queue.mu.Unlock()

	claimed, _ = queue.Claim(ctx)
	pool.handle(ctx, pool.log, claimed)
	if stored := queue.Job(job.ID); stored.Status != model.JobFailed {
		t.Fatalf("expected permanent failure after max attempts, got %s", stored.Status)
	}
	if len(snapshots.All()) != 0 {
		t.Fatal("failed job left a partial snapshot")
	}
}

func TestPoolRunProcessesQueuedJobs(t *testing.T) {
	queue := NewMemoryQueue(testQueueConfig())
	units := &stubUnits{units: []model.Unit{
		{ID: 10, PropertyID: 7, OrgID: "org-a", UnitNumber: "1A", Rent: 1000},
	}}
	snapshots := NewMemorySnapshotStore()
	pool := NewPool(queue, units, ledger.NewMemoryStore(), snapshots, 3, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		if _, err := queue.Enqueue(ctx, 7, "org-a"); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for queue.Count(model.JobCompleted) < 5 {
		select {
		case <-deadline:
			t.Fatalf("pool completed %d of 5 jobs before deadline", queue.Count(model.JobCompleted))
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not stop after cancellation")
	}

	if len(snapshots.All()) != 5 {
		t.Fatalf("expected 5 snapshots, got %d", len(snapshots.All()))
	}
}
