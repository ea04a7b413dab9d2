package model

import (
	"time"
)

// Property represents a managed building owned by an organization.
type Property struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrgID     string    `json:"org_id" gorm:"type:varchar(64);index:idx_properties_org_created;not null"`
	Nickname  string    `json:"nickname" gorm:"type:varchar(100);not null"`
	Street    string    `json:"street" gorm:"type:varchar(255);not null"`
	City      string    `json:"city" gorm:"type:varchar(100);index;not null"`
	State     string    `json:"state" gorm:"type:varchar(50);index;not null"`
	Zip       string    `json:"zip" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_properties_org_created"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Units []Unit `json:"units,omitempty" gorm:"foreignKey:PropertyID"`
}

// GetOrgID implements scope.Resource.
func (p *Property) GetOrgID() string { return p.OrgID }
