package model

import (
	"time"
)

// JobStatus is the lifecycle state of a valuation job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ValuationJob is one durable unit of work for the valuation worker
// pool. The row survives process restarts; completed and failed rows
// are kept for observability and trimmed by the retention policy.
type ValuationJob struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PropertyID  uint      `json:"property_id" gorm:"index;not null"`
	OrgID       string    `json:"org_id" gorm:"type:varchar(64);index;not null"`
	Status      JobStatus `json:"status" gorm:"type:varchar(20);index:idx_jobs_status_run_at;not null;default:queued"`
	Attempts    int       `json:"attempts" gorm:"not null;default:0"`
	MaxAttempts int       `json:"max_attempts" gorm:"not null;default:3"`
	// RunAt is the earliest time the job may be claimed; retries push
	// it forward per the backoff policy.
	RunAt time.Time `json:"run_at" gorm:"index:idx_jobs_status_run_at;not null"`
	// LockedAt is the start of the current lease. A running job whose
	// lease expired is reclaimed by another worker.
	LockedAt    *time.Time `json:"locked_at,omitempty"`
	LastError   string     `json:"last_error,omitempty" gorm:"type:text"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
