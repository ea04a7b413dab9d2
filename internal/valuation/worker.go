package valuation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ledger-service/internal/model"
	"ledger-service/prometheus"
)

// UnitDirectory enumerates the units of a property, scoped by org.
type UnitDirectory interface {
	ListUnitsByProperty(ctx context.Context, orgID string, propertyID uint) ([]model.Unit, error)
}

// CreditAggregator derives the combined credit balance across a set
// of units. The ledger store satisfies this.
type CreditAggregator interface {
	SumBalanceByUnits(ctx context.Context, orgID string, unitIDs []uint) (int64, error)
}

// Pool is the bounded valuation worker pool. Each worker claims one
// job at a time, aggregates the property's units and ledger balances
// into a snapshot, and reports the outcome back to the queue. Workers
// process different properties concurrently.
type Pool struct {
	queue     Queue
	units     UnitDirectory
	ledger    CreditAggregator
	snapshots SnapshotStore
	log       *zap.Logger

	concurrency  int
	pollInterval time.Duration
}

// NewPool constructs a Pool. concurrency defaults to 5 workers.
func NewPool(queue Queue, units UnitDirectory, ledger CreditAggregator, snapshots SnapshotStore, concurrency int, pollInterval time.Duration, log *zap.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 5
	}
	if pollInterval <= 0 {
		pollInterval = 1 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		queue:        queue,
		units:        units,
		ledger:       ledger,
		snapshots:    snapshots,
		log:          log,
		concurrency:  concurrency,
		pollInterval: pollInterval,
	}
}

// Run starts the workers and blocks until ctx is cancelled and every
// worker has drained its current job.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.work(ctx, workerID)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) work(ctx context.Context, workerID int) {
	log := p.log.With(zap.Int("worker", workerID))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Claim(ctx)
		if err != nil {
			log.Error("failed to claim valuation job", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			p.sleep(ctx)
			continue
		}

		p.handle(ctx, log, job)
	}
}

func (p *Pool) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.pollInterval):
	}
}

func (p *Pool) handle(ctx context.Context, log *zap.Logger, job *model.ValuationJob) {
	log = log.With(
		zap.Uint("job_id", job.ID),
		zap.Uint("property_id", job.PropertyID),
		zap.String("org_id", job.OrgID),
		zap.Int("attempt", job.Attempts))

	start := time.Now()
	snapshot, err := p.Process(ctx, job)
	prometheus.ValuationJobDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if failErr := p.queue.Fail(ctx, job, err); failErr != nil {
			log.Error("failed to record job failure", zap.Error(failErr))
			return
		}
		if job.Status == model.JobFailed {
			prometheus.ValuationJobCounter.WithLabelValues("failed").Inc()
			log.Error("valuation job permanently failed", zap.Error(err))
		} else {
			prometheus.ValuationJobCounter.WithLabelValues("retried").Inc()
			log.Warn("valuation job failed, retry scheduled",
				zap.Error(err),
				zap.Time("run_at", job.RunAt))
		}
		return
	}

	if err := p.queue.Complete(ctx, job); err != nil {
		log.Error("failed to mark job completed", zap.Error(err))
		return
	}
	prometheus.ValuationJobCounter.WithLabelValues("completed").Inc()
	log.Info("valuation snapshot created",
		zap.Uint("snapshot_id", snapshot.ID),
		zap.Int("unit_count", snapshot.UnitCount),
		zap.Int64("total_rent", snapshot.TotalRent),
		zap.Int64("total_credits", snapshot.TotalCredits))
}

// Process executes one valuation job: load the property's units, sum
// their rents, aggregate the credit balances of every tenant
// occupying them, and append the snapshot. Any error leaves no
// partial snapshot behind.
func (p *Pool) Process(ctx context.Context, job *model.ValuationJob) (*model.ValuationSnapshot, error) {
	units, err := p.units.ListUnitsByProperty(ctx, job.OrgID, job.PropertyID)
	if err != nil {
		return nil, err
	}

	var totalRent int64
	unitIDs := make([]uint, 0, len(units))
	for _, unit := range units {
		totalRent += unit.Rent
		unitIDs = append(unitIDs, unit.ID)
	}

	totalCredits, err := p.ledger.SumBalanceByUnits(ctx, job.OrgID, unitIDs)
	if err != nil {
		return nil, err
	}

	snapshot := &model.ValuationSnapshot{
		PropertyID:   job.PropertyID,
		OrgID:        job.OrgID,
		UnitCount:    len(units),
		TotalRent:    totalRent,
		TotalCredits: totalCredits,
	}
	if err := p.snapshots.Append(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
