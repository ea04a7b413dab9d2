// Package scope is the single choke point for multi-tenant isolation.
// Every query against org-owned data must pass through Org or Caller,
// and every loaded resource handed back to a caller must pass
// AssertOwned. Cross-organization access is reported as not found so
// foreign data is never observable, not even its existence.
package scope

import (
	"gorm.io/gorm"

	"ledger-service/internal/apperr"
	"ledger-service/internal/auth"
)

// Resource is any record that carries its owning organization.
type Resource interface {
	GetOrgID() string
}

// Org narrows db to rows of the given organization. The constraint is
// always applied, for every role.
func Org(db *gorm.DB, orgID string) *gorm.DB {
	return db.Where("org_id = ?", orgID)
}

// Caller narrows db to rows of the caller's organization.
func Caller(db *gorm.DB, authCtx auth.Context) *gorm.DB {
	return Org(db, authCtx.OrgID)
}

// AssertOwned verifies the resource exists and belongs to the
// caller's organization. A nil resource and a foreign-org resource
// both return ErrNotFound; the two cases must stay indistinguishable.
func AssertOwned(resource Resource, authCtx auth.Context) error {
	if resource == nil {
		return apperr.ErrNotFound
	}
	if resource.GetOrgID() != authCtx.OrgID {
		return apperr.ErrNotFound
	}
	return nil
}
