package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ledger-service/internal/apperr"
	"ledger-service/internal/model"
	"ledger-service/internal/scope"
)

// gormStore is the production Store backed by Postgres. Every query
// routes through the scope package.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store persisting to the given database.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Append(ctx context.Context, tx *model.OwnershipCreditTransaction) error {
	if err := validateNew(tx); err != nil {
		return err
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return apperr.Transient(err)
	}
	return nil
}

func (s *gormStore) List(ctx context.Context, orgID string, tenantID uint, page, limit int) ([]model.OwnershipCreditTransaction, int64, error) {
	q := scope.Org(s.db.WithContext(ctx).Model(&model.OwnershipCreditTransaction{}), orgID).
		Where("tenant_id = ?", tenantID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Transient(err)
	}

	var txs []model.OwnershipCreditTransaction
	offset := (page - 1) * limit
	// Ties on created_at fall back to insertion order.
	err := q.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, 0, apperr.Transient(err)
	}
	return txs, total, nil
}

func (s *gormStore) SumBalance(ctx context.Context, orgID string, tenantID uint) (int64, error) {
	var balance int64
	err := scope.Org(s.db.WithContext(ctx).Model(&model.OwnershipCreditTransaction{}), orgID).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -amount ELSE amount END), 0)", model.TxRedeem).
		Scan(&balance).Error
	if err != nil {
		return 0, apperr.Transient(err)
	}
	return balance, nil
}

func (s *gormStore) ForEachAmount(ctx context.Context, orgID string, tenantID uint, fn func(txType model.TransactionType, amount int64) error) error {
	rows, err := scope.Org(s.db.WithContext(ctx).Model(&model.OwnershipCreditTransaction{}), orgID).
		Where("tenant_id = ?", tenantID).
		Select("type, amount").
		Order("created_at ASC, id ASC").
		Rows()
	if err != nil {
		return apperr.Transient(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			txType model.TransactionType
			amount int64
		)
		if err := rows.Scan(&txType, &amount); err != nil {
			return apperr.Transient(err)
		}
		if err := fn(txType, amount); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return apperr.Transient(err)
	}
	return nil
}

func (s *gormStore) SumBalanceByUnits(ctx context.Context, orgID string, unitIDs []uint) (int64, error) {
	if len(unitIDs) == 0 {
		return 0, nil
	}
	var balance int64
	err := scope.Org(s.db.WithContext(ctx).Model(&model.OwnershipCreditTransaction{}), orgID).
		Where("unit_id IN ?", unitIDs).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -amount ELSE amount END), 0)", model.TxRedeem).
		Scan(&balance).Error
	if err != nil {
		return 0, apperr.Transient(err)
	}
	return balance, nil
}
