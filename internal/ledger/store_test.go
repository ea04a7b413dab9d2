package ledger

import (
	"context"
	"testing"

	"ledger-service/internal/apperr"
	"ledger-service/internal/model"
)

func TestValidateNewSignRules(t *testing.T) {
	cases := []struct {
		name   string
		txType model.TransactionType
		amount int64
		ok     bool
	}{
		{"earn positive", model.TxEarn, 100, true},
		{"earn zero", model.TxEarn, 0, false},
		{"earn negative", model.TxEarn, -100, false},
		{"redeem positive", model.TxRedeem, 50, true},
		{"redeem zero", model.TxRedeem, 0, false},
		{"redeem negative", model.TxRedeem, -50, false},
		{"adjust positive", model.TxAdjust, 25, true},
		{"adjust negative", model.TxAdjust, -25, true},
		{"adjust zero", model.TxAdjust, 0, false},
		{"unknown type", model.TransactionType("TRANSFER"), 10, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateNew(&model.OwnershipCreditTransaction{
				OrgID:    "org-a",
				TenantID: 1,
				UnitID:   10,
				Type:     tc.txType,
				Amount:   tc.amount,
			})
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestValidateNewRequiresOrg(t *testing.T) {
	err := validateNew(&model.OwnershipCreditTransaction{
		TenantID: 1,
		UnitID:   10,
		Type:     model.TxEarn,
		Amount:   100,
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for missing org, got %v", err)
	}
}

func TestMemoryStoreRejectsInvalidAppend(t *testing.T) {
	store := NewMemoryStore()
	err := store.Append(context.Background(), &model.OwnershipCreditTransaction{
		OrgID:    "org-a",
		TenantID: 1,
		Type:     model.TxEarn,
		Amount:   -5,
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, total, _ := store.List(context.Background(), "org-a", 1, 1, 10); total != 0 {
		t.Fatalf("rejected append left a record behind, total=%d", total)
	}
}

func TestSumBalanceByUnits(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seed := []model.OwnershipCreditTransaction{
		{OrgID: "org-a", TenantID: 1, UnitID: 10, Type: model.TxEarn, Amount: 300},
		{OrgID: "org-a", TenantID: 1, UnitID: 10, Type: model.TxRedeem, Amount: 100},
		{OrgID: "org-a", TenantID: 2, UnitID: 11, Type: model.TxEarn, Amount: 50},
		{OrgID: "org-a", TenantID: 4, UnitID: 12, Type: model.TxEarn, Amount: 1000},
		{OrgID: "org-b", TenantID: 3, UnitID: 10, Type: model.TxEarn, Amount: 9999},
	}
	for i := range seed {
		if err := store.Append(ctx, &seed[i]); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	// Units 10 and 11 only; unit 12 and the org-b entry are excluded.
	total, err := store.SumBalanceByUnits(ctx, "org-a", []uint{10, 11})
	if err != nil {
		t.Fatalf("SumBalanceByUnits failed: %v", err)
	}
	if total != 250 {
		t.Fatalf("expected 250, got %d", total)
	}

	total, err = store.SumBalanceByUnits(ctx, "org-a", nil)
	if err != nil {
		t.Fatalf("SumBalanceByUnits with no units failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected 0 for empty unit set, got %d", total)
	}
}
