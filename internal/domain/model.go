package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a named benefit account. Balance is an exact decimal and is
// never negative in any committed state. Version increments by one on every
// successful mutation and drives the optimistic concurrency checks.
type Account struct {
	ID        uuid.UUID
	Name      string
	Balance   decimal.Decimal
	Active    bool
	Version   int64
	CreatedAt time.Time
}

// Transfer statuses. NEW transfers are waiting for the processor; the other
// two are terminal.
const (
	TransferStatusNew       = "NEW"
	TransferStatusCompleted = "COMPLETED"
	TransferStatusFailed    = "FAILED"
)

// Transfer is the record of a transfer request, kept for history and for the
// asynchronous processing queue.
type Transfer struct {
	ID            uuid.UUID
	FromID        uuid.UUID
	ToID          uuid.UUID
	Amount        decimal.Decimal
	Status        string
	FailureReason string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

// TransferResult carries the committed post-transfer state of both accounts.
type TransferResult struct {
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
	FromVersion int64
	ToVersion   int64
}
