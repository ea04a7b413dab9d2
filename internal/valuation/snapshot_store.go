package valuation

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"ledger-service/internal/apperr"
	"ledger-service/internal/model"
)

// SnapshotStore holds the immutable valuation snapshots. Only the
// worker pool writes snapshots; like the ledger store, the interface
// has no update or delete.
type SnapshotStore interface {
	Append(ctx context.Context, snapshot *model.ValuationSnapshot) error
	// ListByProperty returns the newest snapshots of a property, most
	// recent first, capped at limit.
	ListByProperty(ctx context.Context, orgID string, propertyID uint, limit int) ([]model.ValuationSnapshot, error)
}

type gormSnapshotStore struct {
	db *gorm.DB
}

// NewGormSnapshotStore returns a SnapshotStore backed by db.
func NewGormSnapshotStore(db *gorm.DB) SnapshotStore {
	return &gormSnapshotStore{db: db}
}

func (s *gormSnapshotStore) Append(ctx context.Context, snapshot *model.ValuationSnapshot) error {
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return apperr.Transient(err)
	}
	return nil
}

func (s *gormSnapshotStore) ListByProperty(ctx context.Context, orgID string, propertyID uint, limit int) ([]model.ValuationSnapshot, error) {
	var snapshots []model.ValuationSnapshot
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND property_id = ?", orgID, propertyID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, apperr.Transient(err)
	}
	return snapshots, nil
}

// MemorySnapshotStore is the in-memory SnapshotStore for tests.
type MemorySnapshotStore struct {
	mu        sync.Mutex
	nextID    uint
	snapshots []model.ValuationSnapshot
}

// NewMemorySnapshotStore returns an empty MemorySnapshotStore.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{nextID: 1}
}

func (m *MemorySnapshotStore) Append(ctx context.Context, snapshot *model.ValuationSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	snapshot.ID = m.nextID
	m.nextID++
	m.snapshots = append(m.snapshots, *snapshot)
	return nil
}

func (m *MemorySnapshotStore) ListByProperty(ctx context.Context, orgID string, propertyID uint, limit int) ([]model.ValuationSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []model.ValuationSnapshot
	for _, snap := range m.snapshots {
		if snap.OrgID == orgID && snap.PropertyID == propertyID {
			matched = append(matched, snap)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// All returns a copy of every stored snapshot, for assertions.
func (m *MemorySnapshotStore) All() []model.ValuationSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.ValuationSnapshot, len(m.snapshots))
	copy(out, m.snapshots)
	return out
}

var _ SnapshotStore = (*gormSnapshotStore)(nil)
var _ SnapshotStore = (*MemorySnapshotStore)(nil)
