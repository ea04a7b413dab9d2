package model

import (
	"time"

	"gorm.io/gorm"

	"ledger-service/internal/apperr"
)

// TransactionType is the closed set of ledger transaction kinds.
type TransactionType string

const (
	// TxEarn increases the balance by its amount.
	TxEarn TransactionType = "EARN"
	// TxAdjust is a signed manual correction; positive or negative.
	TxAdjust TransactionType = "ADJUST"
	// TxRedeem decreases the balance by its amount.
	TxRedeem TransactionType = "REDEEM"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxEarn, TxAdjust, TxRedeem:
		return true
	}
	return false
}

// Sign returns the contribution multiplier of the type when deriving
// a balance: EARN and ADJUST add, REDEEM subtracts. Both balance
// computation strategies must apply exactly this rule.
func (t TransactionType) Sign() int64 {
	if t == TxRedeem {
		return -1
	}
	return 1
}

// OwnershipCreditTransaction is one record of the append-only ledger.
// Records are created through the three ledger operations and are
// never updated or deleted; the full history is the audit trail.
type OwnershipCreditTransaction struct {
	ID       uint            `json:"id" gorm:"primaryKey"`
	OrgID    string          `json:"org_id" gorm:"type:varchar(64);index:idx_ledger_org_tenant_created;not null"`
	TenantID uint            `json:"tenant_id" gorm:"index:idx_ledger_org_tenant_created;not null"`
	UnitID   uint            `json:"unit_id" gorm:"index;not null"`
	Type     TransactionType `json:"type" gorm:"type:varchar(10);not null"`
	Amount   int64           `json:"amount" gorm:"not null"`
	Memo     string          `json:"memo" gorm:"type:text"`
	// CreatedAt orders the ledger; no UpdatedAt exists because the
	// record never changes.
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_ledger_org_tenant_created,sort:desc"`
}

// GetOrgID implements scope.Resource.
func (t *OwnershipCreditTransaction) GetOrgID() string { return t.OrgID }

// BeforeUpdate rejects every update unconditionally. Together with
// BeforeDelete this enforces immutability at the storage layer even
// for code paths that bypass the ledger store interface.
func (t *OwnershipCreditTransaction) BeforeUpdate(tx *gorm.DB) error {
	return apperr.ErrMutationForbidden
}

// BeforeDelete rejects every delete unconditionally.
func (t *OwnershipCreditTransaction) BeforeDelete(tx *gorm.DB) error {
	return apperr.ErrMutationForbidden
}
