package valuation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ledger-service/internal/apperr"
	"ledger-service/internal/model"
)

// QueueConfig tunes retry, lease and retention behavior.
type QueueConfig struct {
	// MaxAttempts is the delivery attempt limit per job.
	MaxAttempts int
	// BackoffBase is the delay before the first retry; it doubles per
	// attempt.
	BackoffBase time.Duration
	// LeaseTimeout is how long a claimed job stays invisible before a
	// crashed worker's job is redelivered.
	LeaseTimeout time.Duration
	// KeepCompleted / KeepFailed bound how many terminal job rows are
	// retained for observability.
	KeepCompleted int
	KeepFailed    int
}

// DefaultQueueConfig mirrors the production defaults: 3 attempts,
// exponential backoff from 2s, last 100 completed and 50 failed jobs
// kept.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxAttempts:   3,
		BackoffBase:   2 * time.Second,
		LeaseTimeout:  1 * time.Minute,
		KeepCompleted: 100,
		KeepFailed:    50,
	}
}

// Queue is the durable valuation work queue. Enqueue is non-blocking
// with respect to execution; workers drive the rest of the lifecycle
// through Claim, Complete and Fail.
type Queue interface {
	// Enqueue persists a job and returns its handle immediately.
	Enqueue(ctx context.Context, propertyID uint, orgID string) (*model.ValuationJob, error)
	// Claim leases the next due job, or returns nil when none is due.
	Claim(ctx context.Context) (*model.ValuationJob, error)
	// Complete marks the job terminally successful.
	Complete(ctx context.Context, job *model.ValuationJob) error
	// Fail records the error and either schedules a retry per the
	// backoff policy or, once attempts are exhausted, marks the job
	// permanently failed.
	Fail(ctx context.Context, job *model.ValuationJob, jobErr error) error
}

// GormQueue is the production Queue persisting jobs in Postgres. Jobs
// survive process restarts; claiming uses row locks with SKIP LOCKED
// so workers never double-claim.
type GormQueue struct {
	db  *gorm.DB
	cfg QueueConfig
}

// NewGormQueue returns a durable queue backed by db.
func NewGormQueue(db *gorm.DB, cfg QueueConfig) *GormQueue {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultQueueConfig().MaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultQueueConfig().BackoffBase
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = DefaultQueueConfig().LeaseTimeout
	}
	return &GormQueue{db: db, cfg: cfg}
}

func (q *GormQueue) Enqueue(ctx context.Context, propertyID uint, orgID string) (*model.ValuationJob, error) {
	job := &model.ValuationJob{
		PropertyID:  propertyID,
		OrgID:       orgID,
		Status:      model.JobQueued,
		MaxAttempts: q.cfg.MaxAttempts,
		RunAt:       time.Now(),
	}
	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	return job, nil
}

func (q *GormQueue) Claim(ctx context.Context) (*model.ValuationJob, error) {
	var claimed *model.ValuationJob
	now := time.Now()

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job model.ValuationJob
		// Due queued jobs, plus running jobs whose lease expired
		// (worker crashed mid-job).
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status = ? AND run_at <= ?) OR (status = ? AND locked_at <= ?)",
				model.JobQueued, now, model.JobRunning, now.Add(-q.cfg.LeaseTimeout)).
			Order("run_at ASC").
			First(&job).Error
		if err != nil {
			return err
		}

		job.Status = model.JobRunning
		job.Attempts++
		job.LockedAt = &now
		if err := tx.Model(&model.ValuationJob{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":    job.Status,
				"attempts":  job.Attempts,
				"locked_at": job.LockedAt,
			}).Error; err != nil {
			return err
		}
		claimed = &job
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Transient(err)
	}
	return claimed, nil
}

func (q *GormQueue) Complete(ctx context.Context, job *model.ValuationJob) error {
	now := time.Now()
	err := q.db.WithContext(ctx).Model(&model.ValuationJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":       model.JobCompleted,
			"locked_at":    nil,
			"completed_at": now,
		}).Error
	if err != nil {
		return apperr.Transient(err)
	}
	job.Status = model.JobCompleted
	job.CompletedAt = &now

	q.trim(ctx, model.JobCompleted, q.cfg.KeepCompleted)
	return nil
}

func (q *GormQueue) Fail(ctx context.Context, job *model.ValuationJob, jobErr error) error {
	updates := map[string]interface{}{
		"locked_at":  nil,
		"last_error": jobErr.Error(),
	}

	if job.Attempts >= job.MaxAttempts {
		job.Status = model.JobFailed
		updates["status"] = model.JobFailed
	} else {
		job.Status = model.JobQueued
		job.RunAt = time.Now().Add(q.backoff(job.Attempts))
		updates["status"] = model.JobQueued
		updates["run_at"] = job.RunAt
	}
	job.LastError = jobErr.Error()

	err := q.db.WithContext(ctx).Model(&model.ValuationJob{}).
		Where("id = ?", job.ID).
		Updates(updates).Error
	if err != nil {
		return apperr.Transient(err)
	}

	if job.Status == model.JobFailed {
		q.trim(ctx, model.JobFailed, q.cfg.KeepFailed)
	}
	return nil
}

// backoff returns the delay before the next delivery: base doubled
// per completed attempt (2s, 4s, ...).
func (q *GormQueue) backoff(attempts int) time.Duration {
	delay := q.cfg.BackoffBase
	for i := 1; i < attempts; i++ {
		delay *= 2
	}
	return delay
}

// trim discards terminal job rows beyond the retention bound, oldest
// first. Retention failures are ignored; the next terminal job trims
// again.
func (q *GormQueue) trim(ctx context.Context, status model.JobStatus, keep int) {
	if keep <= 0 {
		return
	}
	var ids []uint
	err := q.db.WithContext(ctx).Model(&model.ValuationJob{}).
		Where("status = ?", status).
		Order("id DESC").
		Offset(keep).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return
	}
	q.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.ValuationJob{})
}

var _ Queue = (*GormQueue)(nil)
