package model

import (
	"time"
)

// Tenant represents a person occupying a unit. UserID links the
// profile to the account that authenticates as this tenant.
type Tenant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UnitID    uint      `json:"unit_id" gorm:"index;not null"`
	OrgID     string    `json:"org_id" gorm:"type:varchar(64);index:idx_tenants_org_user;not null"`
	UserID    uint      `json:"user_id" gorm:"index:idx_tenants_org_user;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetOrgID implements scope.Resource.
func (t *Tenant) GetOrgID() string { return t.OrgID }
