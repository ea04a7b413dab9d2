package valuation

import (
	"context"
	"sync"
	"time"

	"ledger-service/internal/model"
)

// MemoryQueue mirrors the GormQueue semantics in memory: due-time
// claiming, lease-based redelivery, exponential backoff and retention
// trimming. Used by tests and as a DI substitute.
type MemoryQueue struct {
	mu     sync.Mutex
	nextID uint
	jobs   []*model.ValuationJob
	cfg    QueueConfig
}

// NewMemoryQueue returns an empty MemoryQueue.
func NewMemoryQueue(cfg QueueConfig) *MemoryQueue {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultQueueConfig().MaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultQueueConfig().BackoffBase
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = DefaultQueueConfig().LeaseTimeout
	}
	return &MemoryQueue{nextID: 1, cfg: cfg}
}

func (m *MemoryQueue) Enqueue(ctx context.Context, propertyID uint, orgID string) (*model.ValuationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.ValuationJob{
		ID:          m.nextID,
		PropertyID:  propertyID,
		OrgID:       orgID,
		Status:      model.JobQueued,
		MaxAttempts: m.cfg.MaxAttempts,
		RunAt:       time.Now(),
		CreatedAt:   time.Now(),
	}
	m.nextID++
	m.jobs = append(m.jobs, job)

	out := *job
	return &out, nil
}

func (m *MemoryQueue) Claim(ctx context.Context) (*model.ValuationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var due *model.ValuationJob
	for _, job := range m.jobs {
		claimable := (job.Status == model.JobQueued && !job.RunAt.After(now)) ||
			(job.Status == model.JobRunning && job.LockedAt != nil && job.LockedAt.Add(m.cfg.LeaseTimeout).Before(now))
		if !claimable {
			continue
		}
		if due == nil || job.RunAt.Before(due.RunAt) {
			due = job
		}
	}
	if due == nil {
		return nil, nil
	}

	due.Status = model.JobRunning
	due.Attempts++
	locked := now
	due.LockedAt = &locked

	out := *due
	return &out, nil
}

func (m *MemoryQueue) Complete(ctx context.Context, job *model.ValuationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.find(job.ID)
	if stored == nil {
		return nil
	}
	now := time.Now()
	stored.Status = model.JobCompleted
	stored.LockedAt = nil
	stored.CompletedAt = &now
	job.Status = model.JobCompleted
	job.CompletedAt = &now

	m.trim(model.JobCompleted, m.cfg.KeepCompleted)
	return nil
}

func (m *MemoryQueue) Fail(ctx context.Context, job *model.ValuationJob, jobErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.find(job.ID)
	if stored == nil {
		return nil
	}
	stored.LockedAt = nil
	stored.LastError = jobErr.Error()

	if stored.Attempts >= stored.MaxAttempts {
		stored.Status = model.JobFailed
		m.trim(model.JobFailed, m.cfg.KeepFailed)
	} else {
		stored.Status = model.JobQueued
		stored.RunAt = time.Now().Add(m.backoff(stored.Attempts))
	}

	job.Status = stored.Status
	job.RunAt = stored.RunAt
	job.LastError = stored.LastError
	return nil
}

// Job returns a copy of the stored job, for assertions.
func (m *MemoryQueue) Job(id uint) *model.ValuationJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.find(id)
	if stored == nil {
		return nil
	}
	out := *stored
	return &out
}

// Count returns the number of stored jobs with the given status.
func (m *MemoryQueue) Count(status model.JobStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, job := range m.jobs {
		if job.Status == status {
			n++
		}
	}
	return n
}

func (m *MemoryQueue) find(id uint) *model.ValuationJob {
	for _, job := range m.jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (m *MemoryQueue) backoff(attempts int) time.Duration {
	delay := m.cfg.BackoffBase
	for i := 1; i < attempts; i++ {
		delay *= 2
	}
	return delay
}

func (m *MemoryQueue) trim(status model.JobStatus, keep int) {
	if keep <= 0 {
		return
	}
	var terminal []*model.ValuationJob
	for _, job := range m.jobs {
		if job.Status == status {
			terminal = append(terminal, job)
		}
	}
	if len(terminal) <= keep {
		return
	}
	// Newest first by id; everything past keep goes.
	drop := make(map[uint]bool)
	for i := 0; i < len(terminal)-keep; i++ {
		drop[terminal[i].ID] = true
	}
	kept := m.jobs[:0]
	for _, job := range m.jobs {
		if !drop[job.ID] {
			kept = append(kept, job)
		}
	}
	m.jobs = kept
}

var _ Queue = (*MemoryQueue)(nil)
