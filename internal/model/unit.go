package model

import (
	"time"
)

// Unit represents a rentable unit of a property. Rent is whole
// currency units per month.
type Unit struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PropertyID uint      `json:"property_id" gorm:"index;not null;uniqueIndex:idx_units_org_property_number"`
	OrgID      string    `json:"org_id" gorm:"type:varchar(64);index;not null;uniqueIndex:idx_units_org_property_number"`
	UnitNumber string    `json:"unit_number" gorm:"type:varchar(20);not null;uniqueIndex:idx_units_org_property_number"`
	Rent       int64     `json:"rent" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetOrgID implements scope.Resource.
func (u *Unit) GetOrgID() string { return u.OrgID }
