package events

import "time"

// TransactionEvent is published after every successful ledger append.
// Consumers get the full audit record; the derived balance is never
// pushed (it is always recomputed from the ledger).
type TransactionEvent struct {
	TransactionID uint      `json:"transaction_id"`
	OrgID         string    `json:"org_id"`
	TenantID      uint      `json:"tenant_id"`
	UnitID        uint      `json:"unit_id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	Memo          string    `json:"memo"`
	CreatedAt     time.Time `json:"created_at"`
}

// Publisher emits ledger events to an external broker. Publishing is
// best effort: a failure is logged by the caller and never fails the
// ledger write.
type Publisher interface {
	Publish(event TransactionEvent) error
}

// NopPublisher discards every event. Used when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(TransactionEvent) error { return nil }
