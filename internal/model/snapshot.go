package model

import (
	"time"

	"gorm.io/gorm"

	"ledger-service/internal/apperr"
)

// ValuationSnapshot is an immutable point-in-time aggregate of a
// property: how many units it has, their combined rent, and the sum
// of derived credit balances across its tenants. One row is written
// per completed valuation job.
type ValuationSnapshot struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	PropertyID   uint      `json:"property_id" gorm:"index:idx_snapshots_org_property_created;not null"`
	OrgID        string    `json:"org_id" gorm:"type:varchar(64);index:idx_snapshots_org_property_created;not null"`
	UnitCount    int       `json:"unit_count" gorm:"not null"`
	TotalRent    int64     `json:"total_rent" gorm:"not null"`
	TotalCredits int64     `json:"total_credits" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"index:idx_snapshots_org_property_created,sort:desc"`
}

// GetOrgID implements scope.Resource.
func (s *ValuationSnapshot) GetOrgID() string { return s.OrgID }

// BeforeUpdate rejects every update; snapshots are append-only.
func (s *ValuationSnapshot) BeforeUpdate(tx *gorm.DB) error {
	return apperr.ErrMutationForbidden
}

// BeforeDelete rejects every delete; snapshots are append-only.
func (s *ValuationSnapshot) BeforeDelete(tx *gorm.DB) error {
	return apperr.ErrMutationForbidden
}
