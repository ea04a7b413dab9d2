package ledger

import (
	"context"

	"ledger-service/internal/apperr"
	"ledger-service/internal/model"
)

// Store is the append-only ledger collection. The interface exposes
// appends and read-side aggregations only; no update or delete method
// exists, so immutability holds at the type level. The gorm hooks on
// the model reject mutations for anything that bypasses this
// interface.
type Store interface {
	// Append validates the amount sign rule for the transaction type,
	// stamps CreatedAt and persists the record.
	Append(ctx context.Context, tx *model.OwnershipCreditTransaction) error

	// List returns one page of a tenant's transactions, newest first,
	// together with the total count for pagination metadata. page is
	// 1-based.
	List(ctx context.Context, orgID string, tenantID uint, page, limit int) ([]model.OwnershipCreditTransaction, int64, error)

	// SumBalance derives the tenant's balance in a single server-side
	// pass: EARN and ADJUST amounts add, REDEEM amounts subtract.
	SumBalance(ctx context.Context, orgID string, tenantID uint) (int64, error)

	// ForEachAmount streams the (type, amount) pairs of a tenant's
	// transactions to fn in ledger order. Callers fold the stream with
	// the same sign rule as SumBalance; the two derivations must agree
	// for every transaction set.
	ForEachAmount(ctx context.Context, orgID string, tenantID uint, fn func(txType model.TransactionType, amount int64) error) error

	// SumBalanceByUnits derives the combined balance of every tenant
	// occupying the given units, with the identical sign rule. Used by
	// the valuation worker.
	SumBalanceByUnits(ctx context.Context, orgID string, unitIDs []uint) (int64, error)
}

// validateNew checks the amount sign rule for a new transaction:
// EARN and REDEEM carry a strictly positive magnitude, ADJUST any
// non-zero signed value.
func validateNew(tx *model.OwnershipCreditTransaction) error {
	if !tx.Type.Valid() {
		return apperr.Validation("unknown transaction type %q", tx.Type)
	}
	switch tx.Type {
	case model.TxEarn, model.TxRedeem:
		if tx.Amount <= 0 {
			return apperr.Validation("%s amount must be positive, got %d", tx.Type, tx.Amount)
		}
	case model.TxAdjust:
		if tx.Amount == 0 {
			return apperr.Validation("ADJUST amount must be non-zero")
		}
	}
	if tx.OrgID == "" {
		return apperr.Validation("transaction requires an organization")
	}
	return nil
}
