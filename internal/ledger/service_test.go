package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ledger-service/internal/apperr"
	"ledger-service/internal/auth"
	"ledger-service/internal/model"
)

// stubDirectory is a TenantDirectory over a fixed tenant set. Lookups
// honor org scoping the same way the gorm directory does.
type stubDirectory struct {
	tenants []*model.Tenant
}

func (d *stubDirectory) FindByID(ctx context.Context, authCtx auth.Context, id uint) (*model.Tenant, error) {
	for _, t := range d.tenants {
		if t.ID == id && t.OrgID == authCtx.OrgID {
			return t, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (d *stubDirectory) FindByUserID(ctx context.Context, authCtx auth.Context, userID uint) (*model.Tenant, error) {
	for _, t := range d.tenants {
		if t.UserID == userID && t.OrgID == authCtx.OrgID {
			return t, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	dir := &stubDirectory{tenants: []*model.Tenant{
		{ID: 1, UnitID: 10, OrgID: "org-a", UserID: 100, Name: "Ada", Email: "ada@example.com"},
		{ID: 2, UnitID: 11, OrgID: "org-a", UserID: 101, Name: "Ben", Email: "ben@example.com"},
		{ID: 3, UnitID: 20, OrgID: "org-b", UserID: 200, Name: "Cleo", Email: "cleo@example.com"},
	}}
	return NewService(store, dir, nil, nil), store
}

func landlord(orgID string) auth.Context {
	return auth.Context{UserID: 1, OrgID: orgID, Role: auth.RoleLandlord}
}

func TestEarnValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, amount := range []int64{0, -50} {
		if _, err := svc.Earn(ctx, landlord("org-a"), 1, amount, ""); !apperr.IsValidation(err) {
			t.Fatalf("Earn(%d): expected validation error, got %v", amount, err)
		}
	}

	tx, err := svc.Earn(ctx, landlord("org-a"), 1, 100, "")
	if err != nil {
		t.Fatalf("Earn failed: %v", err)
	}
	if tx.Type != model.TxEarn || tx.Amount != 100 {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.Memo == "" {
		t.Fatal("expected a default memo on earn")
	}
	if tx.UnitID != 10 {
		t.Fatalf("expected unit 10 from tenant profile, got %d", tx.UnitID)
	}
}

func TestAdjustRequiresMemo(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Adjust(ctx, landlord("org-a"), 1, 50, ""); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for missing memo, got %v", err)
	}
	if _, err := svc.Adjust(ctx, landlord("org-a"), 1, 0, "zero"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	// Negative adjustments are legal.
	tx, err := svc.Adjust(ctx, landlord("org-a"), 1, -20, "data entry correction")
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if tx.Amount != -20 {
		t.Fatalf("expected amount -20, got %d", tx.Amount)
	}
}

func TestRedeemInsufficientBalance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	caller := landlord("org-a")

	if _, err := svc.Earn(ctx, caller, 1, 100, ""); err != nil {
		t.Fatalf("Earn failed: %v", err)
	}

	_, err := svc.Redeem(ctx, caller, 1, 150, "")
	var ibe *apperr.InsufficientBalanceError
	if !errors.As(err, &ibe) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if ibe.Balance != 100 || ibe.Requested != 150 {
		t.Fatalf("unexpected error detail: balance=%d requested=%d", ibe.Balance, ibe.Requested)
	}

	// The refused redemption must leave no trace in the ledger.
	balance, err := svc.GetBalance(ctx, caller, 1)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Balance != 100 {
		t.Fatalf("balance changed after refused redemption: %d", balance.Balance)
	}

	if _, err := svc.Redeem(ctx, caller, 1, 50, ""); err != nil {
		t.Fatalf("Redeem within balance failed: %v", err)
	}
	balance, _ = svc.GetBalance(ctx, caller, 1)
	if balance.Balance != 50 {
		t.Fatalf("expected balance 50 after redemption, got %d", balance.Balance)
	}
}

func TestRedeemExactBalance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	caller := landlord("org-a")

	if _, err := svc.Earn(ctx, caller, 1, 75, ""); err != nil {
		t.Fatalf("Earn failed: %v", err)
	}
	if _, err := svc.Redeem(ctx, caller, 1, 75, ""); err != nil {
		t.Fatalf("redeeming the exact balance must succeed: %v", err)
	}
	balance, _ := svc.GetBalance(ctx, caller, 1)
	if balance.Balance != 0 {
		t.Fatalf("expected zero balance, got %d", balance.Balance)
	}
}

func TestConcurrentRedemptionsNeverOverdraw(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	caller := landlord("org-a")

	if _, err := svc.Earn(ctx, caller, 1, 100, ""); err != nil {
		t.Fatalf("Earn failed: %v", err)
	}

	const attempts = 20
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Redeem(ctx, caller, 1, 60, ""); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	won := 0
	for range successes {
		won++
	}
	if won != 1 {
		t.Fatalf("expected exactly one redemption of 60 against balance 100, got %d", won)
	}

	balance, _ := svc.GetBalance(ctx, caller, 1)
	if balance.Balance != 40 {
		t.Fatalf("expected balance 40, got %d", balance.Balance)
	}
}

func TestCrossOrgTenantIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Tenant 3 belongs to org-b; org-a callers must not learn it exists.
	if _, err := svc.Earn(ctx, landlord("org-a"), 3, 100, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("earn on foreign tenant: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Redeem(ctx, landlord("org-a"), 3, 10, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("redeem on foreign tenant: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Adjust(ctx, landlord("org-a"), 3, 10, "correction"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("adjust on foreign tenant: expected ErrNotFound, got %v", err)
	}

	// The foreign tenant's data itself stays invisible.
	if _, err := svc.Earn(ctx, landlord("org-b"), 3, 500, ""); err != nil {
		t.Fatalf("Earn in owning org failed: %v", err)
	}
	page, err := svc.GetLedger(ctx, landlord("org-a"), 3, 1, 10)
	if err != nil {
		t.Fatalf("GetLedger failed: %v", err)
	}
	if page.Total != 0 || len(page.Items) != 0 {
		t.Fatalf("org-a sees org-b ledger entries: %+v", page)
	}
}

func TestTenantRoleReadsOwnLedgerOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Earn(ctx, landlord("org-a"), 1, 100, ""); err != nil {
		t.Fatalf("Earn failed: %v", err)
	}

	// UserID 100 is tenant 1; reading tenant 2 is denied.
	self := auth.Context{UserID: 100, OrgID: "org-a", Role: auth.RoleTenant}
	if _, err := svc.GetBalance(ctx, self, 2); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := svc.GetLedger(ctx, self, 2, 1, 10); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	balance, err := svc.GetBalance(ctx, self, 1)
	if err != nil {
		t.Fatalf("self read failed: %v", err)
	}
	if balance.Balance != 100 {
		t.Fatalf("expected balance 100, got %d", balance.Balance)
	}

	// A caller with no tenant profile at all is also denied.
	stranger := auth.Context{UserID: 999, OrgID: "org-a", Role: auth.RoleTenant}
	if _, err := svc.GetBalance(ctx, stranger, 1); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for profileless tenant, got %v", err)
	}
}

func TestTenantRoleCanRedeemOwnCredits(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Earn(ctx, landlord("org-a"), 1, 100, ""); err != nil {
		t.Fatalf("Earn failed: %v", err)
	}

	self := auth.Context{UserID: 100, OrgID: "org-a", Role: auth.RoleTenant}
	if _, err := svc.Redeem(ctx, self, 1, 30, ""); err != nil {
		t.Fatalf("tenant self-redemption failed: %v", err)
	}
	balance, _ := svc.GetBalance(ctx, self, 1)
	if balance.Balance != 70 {
		t.Fatalf("expected balance 70, got %d", balance.Balance)
	}
}

func TestGetLedgerPagination(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	caller := landlord("org-a")

	for i := 1; i <= 15; i++ {
		if _, err := svc.Earn(ctx, caller, 1, int64(i), ""); err != nil {
			t.Fatalf("Earn %d failed: %v", i, err)
		}
	}

	page, err := svc.GetLedger(ctx, caller, 1, 1, 10)
	if err != nil {
		t.Fatalf("GetLedger failed: %v", err)
	}
	if page.Total != 15 {
		t.Fatalf("expected total 15, got %d", page.Total)
	}
	if len(page.Items) != 10 {
		t.Fatalf("expected 10 items on page 1, got %d", len(page.Items))
	}
	// Newest first: the last earn (amount 15) leads.
	if page.Items[0].Amount != 15 {
		t.Fatalf("expected newest transaction first, got amount %d", page.Items[0].Amount)
	}

	page, err = svc.GetLedger(ctx, caller, 1, 2, 10)
	if err != nil {
		t.Fatalf("GetLedger page 2 failed: %v", err)
	}
	if len(page.Items) != 5 {
		t.Fatalf("expected 5 items on page 2, got %d", len(page.Items))
	}

	// Out-of-range page returns an empty list, not an error.
	page, err = svc.GetLedger(ctx, caller, 1, 5, 10)
	if err != nil {
		t.Fatalf("GetLedger page 5 failed: %v", err)
	}
	if len(page.Items) != 0 || page.Total != 15 {
		t.Fatalf("expected empty page with total 15, got %+v", page)
	}

	// Defaults kick in for nonsense paging values.
	page, err = svc.GetLedger(ctx, caller, 1, 0, -3)
	if err != nil {
		t.Fatalf("GetLedger with defaults failed: %v", err)
	}
	if len(page.Items) != 10 {
		t.Fatalf("expected default limit 10, got %d items", len(page.Items))
	}
}
