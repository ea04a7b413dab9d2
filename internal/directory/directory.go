// Package directory provides org-scoped read-only lookups of the
// platform entities. The ledger service and the valuation worker
// consume these through their own small interfaces.
package directory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ledger-service/internal/apperr"
	"ledger-service/internal/auth"
	"ledger-service/internal/model"
	"ledger-service/internal/scope"
)

// GormDirectory implements the lookup interfaces over the database.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory returns a directory backed by db.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// FindByID resolves a tenant within the caller's organization.
func (d *GormDirectory) FindByID(ctx context.Context, authCtx auth.Context, id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	err := scope.Caller(d.db.WithContext(ctx), authCtx).First(&tenant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Transient(err)
	}
	return &tenant, nil
}

// FindByUserID resolves the tenant profile of the given account
// within the caller's organization.
func (d *GormDirectory) FindByUserID(ctx context.Context, authCtx auth.Context, userID uint) (*model.Tenant, error) {
	var tenant model.Tenant
	err := scope.Caller(d.db.WithContext(ctx), authCtx).
		Where("user_id = ?", userID).
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Transient(err)
	}
	return &tenant, nil
}

// FindProperty resolves a property within the caller's organization.
func (d *GormDirectory) FindProperty(ctx context.Context, authCtx auth.Context, id uint) (*model.Property, error) {
	var property model.Property
	err := scope.Caller(d.db.WithContext(ctx), authCtx).First(&property, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Transient(err)
	}
	return &property, nil
}

// ListUnitsByProperty returns every unit of the property inside the
// given organization. The valuation worker has no caller context, so
// this takes the org id recorded on the job.
func (d *GormDirectory) ListUnitsByProperty(ctx context.Context, orgID string, propertyID uint) ([]model.Unit, error) {
	var units []model.Unit
	err := scope.Org(d.db.WithContext(ctx), orgID).
		Where("property_id = ?", propertyID).
		Order("unit_number ASC").
		Find(&units).Error
	if err != nil {
		return nil, apperr.Transient(err)
	}
	return units, nil
}
