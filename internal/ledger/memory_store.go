package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"ledger-service/internal/model"
)

// MemoryStore is an in-memory Store used by tests and as a drop-in
// substitute wherever a database is unavailable. It applies the same
// validation and sign rules as the gorm store and is safe for
// concurrent use. Like the interface it implements, it offers no way
// to change or remove an appended record.
type MemoryStore struct {
	mu     sync.Mutex
	nextID uint
	txs    []model.OwnershipCreditTransaction
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (m *MemoryStore) Append(ctx context.Context, tx *model.OwnershipCreditTransaction) error {
	if err := validateNew(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	tx.ID = m.nextID
	m.nextID++
	m.txs = append(m.txs, *tx)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, orgID string, tenantID uint, page, limit int) ([]model.OwnershipCreditTransaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []model.OwnershipCreditTransaction
	for _, tx := range m.txs {
		if tx.OrgID == orgID && tx.TenantID == tenantID {
			matched = append(matched, tx)
		}
	}

	// Newest first; insertion order breaks created_at ties.
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]model.OwnershipCreditTransaction, end-start)
	copy(out, matched[start:end])
	return out, total, nil
}

func (m *MemoryStore) SumBalance(ctx context.Context, orgID string, tenantID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var balance int64
	for _, tx := range m.txs {
		if tx.OrgID == orgID && tx.TenantID == tenantID {
			balance += tx.Type.Sign() * tx.Amount
		}
	}
	return balance, nil
}

func (m *MemoryStore) ForEachAmount(ctx context.Context, orgID string, tenantID uint, fn func(txType model.TransactionType, amount int64) error) error {
	m.mu.Lock()
	pairs := make([]model.OwnershipCreditTransaction, 0, len(m.txs))
	for _, tx := range m.txs {
		if tx.OrgID == orgID && tx.TenantID == tenantID {
			pairs = append(pairs, tx)
		}
	}
	m.mu.Unlock()

	for _, tx := range pairs {
		if err := fn(tx.Type, tx.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) SumBalanceByUnits(ctx context.Context, orgID string, unitIDs []uint) (int64, error) {
	if len(unitIDs) == 0 {
		return 0, nil
	}
	wanted := make(map[uint]bool, len(unitIDs))
	for _, id := range unitIDs {
		wanted[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var balance int64
	for _, tx := range m.txs {
		if tx.OrgID == orgID && wanted[tx.UnitID] {
			balance += tx.Type.Sign() * tx.Amount
		}
	}
	return balance, nil
}

// Compile-time check: MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
