package ledger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ledger-service/internal/apperr"
	"ledger-service/internal/auth"
	"ledger-service/internal/events"
	"ledger-service/internal/model"
	"ledger-service/prometheus"
)

// TenantDirectory resolves tenant profiles, always scoped to the
// caller's organization. A tenant of another organization is reported
// as not found.
type TenantDirectory interface {
	FindByID(ctx context.Context, authCtx auth.Context, id uint) (*model.Tenant, error)
	FindByUserID(ctx context.Context, authCtx auth.Context, userID uint) (*model.Tenant, error)
}

// Balance is a derived balance response. The value is computed from
// the ledger on every call and never stored.
type Balance struct {
	TenantID uint  `json:"tenant_id"`
	Balance  int64 `json:"balance"`
}

// Page is one page of a tenant's ledger with the total count.
type Page struct {
	Items []model.OwnershipCreditTransaction `json:"items"`
	Total int64                              `json:"total"`
}

// Service implements the ledger business rules on top of a Store and
// a TenantDirectory. It owns the redemption guard: the balance check
// and the append run under a per-tenant lock, so two concurrent
// redemptions cannot jointly overdraw a balance.
type Service struct {
	store   Store
	tenants TenantDirectory
	events  events.Publisher
	log     *zap.Logger

	muMap map[string]*sync.Mutex
	mapMu sync.Mutex
}

// NewService constructs a Service. publisher may be nil to disable
// event publishing.
func NewService(store Store, tenants TenantDirectory, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:   store,
		tenants: tenants,
		events:  publisher,
		log:     log,
		muMap:   make(map[string]*sync.Mutex),
	}
}

// tenantLock returns the mutex guarding one tenant's ledger writes.
func (s *Service) tenantLock(orgID string, tenantID uint) *sync.Mutex {
	key := fmt.Sprintf("%s/%d", orgID, tenantID)

	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	if _, exists := s.muMap[key]; !exists {
		s.muMap[key] = &sync.Mutex{}
	}
	return s.muMap[key]
}

// Earn awards credits to a tenant. Role authorization (landlord or
// admin) is enforced by middleware before this call.
func (s *Service) Earn(ctx context.Context, authCtx auth.Context, tenantID uint, amount int64, memo string) (*model.OwnershipCreditTransaction, error) {
	if amount <= 0 {
		return nil, apperr.Validation("earn amount must be positive, got %d", amount)
	}

	tenant, err := s.tenants.FindByID(ctx, authCtx, tenantID)
	if err != nil {
		return nil, err
	}

	if memo == "" {
		memo = "Credits earned"
	}

	return s.append(ctx, authCtx, tenant, model.TxEarn, amount, memo)
}

// Adjust applies a signed manual correction. A memo is mandatory:
// adjustments are manual interventions and the audit trail must say
// why.
func (s *Service) Adjust(ctx context.Context, authCtx auth.Context, tenantID uint, amount int64, memo string) (*model.OwnershipCreditTransaction, error) {
	if amount == 0 {
		return nil, apperr.Validation("adjustment amount must be non-zero")
	}
	if memo == "" {
		return nil, apperr.Validation("adjustment memo is required")
	}

	tenant, err := s.tenants.FindByID(ctx, authCtx, tenantID)
	if err != nil {
		return nil, err
	}

	return s.append(ctx, authCtx, tenant, model.TxAdjust, amount, memo)
}

// Redeem spends credits against the derived balance. The balance
// check and the append are one atomic step with respect to other
// writes on the same tenant's ledger: no transaction that would drive
// the balance negative is ever persisted.
func (s *Service) Redeem(ctx context.Context, authCtx auth.Context, tenantID uint, amount int64, memo string) (*model.OwnershipCreditTransaction, error) {
	if amount <= 0 {
		return nil, apperr.Validation("redeem amount must be positive, got %d", amount)
	}

	tenant, err := s.tenants.FindByID(ctx, authCtx, tenantID)
	if err != nil {
		return nil, err
	}

	if memo == "" {
		memo = "Credits redeemed"
	}

	lock := s.tenantLock(authCtx.OrgID, tenant.ID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := s.store.SumBalance(ctx, authCtx.OrgID, tenant.ID)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		prometheus.InsufficientBalanceCounter.Inc()
		s.log.Warn("redemption refused: insufficient balance",
			zap.Uint("tenant_id", tenant.ID),
			zap.Int64("balance", balance),
			zap.Int64("requested", amount))
		return nil, &apperr.InsufficientBalanceError{Balance: balance, Requested: amount}
	}

	return s.append(ctx, authCtx, tenant, model.TxRedeem, amount, memo)
}

// GetLedger lists a tenant's transactions newest first. A tenant-role
// caller may only read their own ledger.
func (s *Service) GetLedger(ctx context.Context, authCtx auth.Context, tenantID uint, page, limit int) (*Page, error) {
	if err := s.assertSelf(ctx, authCtx, tenantID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	items, total, err := s.store.List(ctx, authCtx.OrgID, tenantID, page, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.OwnershipCreditTransaction{}
	}
	return &Page{Items: items, Total: total}, nil
}

// GetBalance returns the tenant's derived balance via the aggregation
// strategy. A tenant-role caller may only read their own balance.
func (s *Service) GetBalance(ctx context.Context, authCtx auth.Context, tenantID uint) (*Balance, error) {
	if err := s.assertSelf(ctx, authCtx, tenantID); err != nil {
		return nil, err
	}

	balance, err := s.store.SumBalance(ctx, authCtx.OrgID, tenantID)
	if err != nil {
		return nil, err
	}
	return &Balance{TenantID: tenantID, Balance: balance}, nil
}

// BalanceAggregate derives the balance in one server-side pass. This
// is the production path used by GetBalance and the redeem guard.
func (s *Service) BalanceAggregate(ctx context.Context, authCtx auth.Context, tenantID uint) (int64, error) {
	return s.store.SumBalance(ctx, authCtx.OrgID, tenantID)
}

// BalanceStreaming derives the balance by folding the streamed
// (type, amount) pairs client-side. It must agree with
// BalanceAggregate on every transaction set; divergence is a bug.
func (s *Service) BalanceStreaming(ctx context.Context, authCtx auth.Context, tenantID uint) (int64, error) {
	var balance int64
	err := s.store.ForEachAmount(ctx, authCtx.OrgID, tenantID, func(txType model.TransactionType, amount int64) error {
		balance += txType.Sign() * amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// assertSelf restricts tenant-role callers to their own ledger. The
// caller's tenant profile is resolved by user id; a missing profile or
// a mismatch is access denied.
func (s *Service) assertSelf(ctx context.Context, authCtx auth.Context, tenantID uint) error {
	if authCtx.Role != auth.RoleTenant {
		return nil
	}

	own, err := s.tenants.FindByUserID(ctx, authCtx, authCtx.UserID)
	if err != nil || own.ID != tenantID {
		return apperr.ErrAccessDenied
	}
	return nil
}

// append persists the transaction and emits the audit event.
func (s *Service) append(ctx context.Context, authCtx auth.Context, tenant *model.Tenant, txType model.TransactionType, amount int64, memo string) (*model.OwnershipCreditTransaction, error) {
	tx := &model.OwnershipCreditTransaction{
		OrgID:    authCtx.OrgID,
		TenantID: tenant.ID,
		UnitID:   tenant.UnitID,
		Type:     txType,
		Amount:   amount,
		Memo:     memo,
	}

	if err := s.store.Append(ctx, tx); err != nil {
		return nil, err
	}

	prometheus.LedgerTransactionCounter.WithLabelValues(string(txType)).Inc()
	s.log.Info("ledger transaction appended",
		zap.Uint("transaction_id", tx.ID),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("type", string(txType)),
		zap.Int64("amount", amount))

	if err := s.events.Publish(events.TransactionEvent{
		TransactionID: tx.ID,
		OrgID:         tx.OrgID,
		TenantID:      tx.TenantID,
		UnitID:        tx.UnitID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Memo:          tx.Memo,
		CreatedAt:     tx.CreatedAt,
	}); err != nil {
		// Best effort only; the write already succeeded.
		s.log.Warn("failed to publish transaction event", zap.Error(err))
	}

	return tx, nil
}
