package model

import (
	"errors"
	"testing"

	"ledger-service/internal/apperr"
)

func TestTransactionTypeSign(t *testing.T) {
	if TxEarn.Sign() != 1 {
		t.Fatalf("EARN sign = %d, want 1", TxEarn.Sign())
	}
	if TxAdjust.Sign() != 1 {
		t.Fatalf("ADJUST sign = %d, want 1", TxAdjust.Sign())
	}
	if TxRedeem.Sign() != -1 {
		t.Fatalf("REDEEM sign = %d, want -1", TxRedeem.Sign())
	}
}

func TestTransactionTypeValid(t *testing.T) {
	for _, valid := range []TransactionType{TxEarn, TxAdjust, TxRedeem} {
		if !valid.Valid() {
			t.Fatalf("%s reported invalid", valid)
		}
	}
	for _, invalid := range []TransactionType{"", "earn", "TRANSFER"} {
		if invalid.Valid() {
			t.Fatalf("%q reported valid", invalid)
		}
	}
}

// The gorm hooks guard immutability below the store interface: any
// update or delete attempt on a ledger record or snapshot is rejected
// before it reaches the database.

func TestTransactionHooksRejectMutation(t *testing.T) {
	tx := &OwnershipCreditTransaction{ID: 1, OrgID: "org-a", Type: TxEarn, Amount: 100}

	if err := tx.BeforeUpdate(nil); !errors.Is(err, apperr.ErrMutationForbidden) {
		t.Fatalf("BeforeUpdate: expected ErrMutationForbidden, got %v", err)
	}
	if err := tx.BeforeDelete(nil); !errors.Is(err, apperr.ErrMutationForbidden) {
		t.Fatalf("BeforeDelete: expected ErrMutationForbidden, got %v", err)
	}
}

func TestSnapshotHooksRejectMutation(t *testing.T) {
	snap := &ValuationSnapshot{ID: 1, OrgID: "org-a", PropertyID: 7}

	if err := snap.BeforeUpdate(nil); !errors.Is(err, apperr.ErrMutationForbidden) {
		t.Fatalf("BeforeUpdate: expected ErrMutationForbidden, got %v", err)
	}
	if err := snap.BeforeDelete(nil); !errors.Is(err, apperr.ErrMutationForbidden) {
		t.Fatalf("BeforeDelete: expected ErrMutationForbidden, got %v", err)
	}
}
