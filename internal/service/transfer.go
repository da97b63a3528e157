package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/mvasenkov/benefits/pkg/backoff"
	"github.com/mvasenkov/benefits/pkg/logger"
	"github.com/shopspring/decimal"
)

// reversalAttempts bounds the compensating write that undoes a committed
// debit. Exhausting it is the one unrecoverable path in the engine.
const reversalAttempts = 3

type accountStore interface {
	Account(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ConditionalPut(ctx context.Context, account *domain.Account, expectedVersion int64) (int64, error)
}

type transferLedger interface {
	CreateTransfer(ctx context.Context, transfer *domain.Transfer) error
	Transfers(ctx context.Context, accountID uuid.UUID) ([]domain.Transfer, error)
}

// TransferService moves value between two accounts under optimistic
// concurrency control. It holds no per-call state, so a single instance is
// safe for concurrent use.
type TransferService struct {
	accounts    accountStore
	ledger      transferLedger
	maxAttempts int
	backoffBase time.Duration
}

func NewTransferService(accounts accountStore, ledger transferLedger, maxAttempts int, backoffBase time.Duration) *TransferService {
	return &TransferService{
		accounts:    accounts,
		ledger:      ledger,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// Execute validates and applies a transfer. On a version conflict the whole
// protocol is re-run from fresh reads, up to the configured attempt budget.
// Every failure leaves both balances exactly as they were before the call.
func (s *TransferService) Execute(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*domain.TransferResult, error) {
	if fromID == uuid.Nil || toID == uuid.Nil {
		return nil, domain.ErrMissingAccountID
	}

	if !amount.IsPositive() {
		return nil, domain.ErrNonPositiveAmount
	}

	if fromID == toID {
		return nil, domain.ErrSameAccount
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("transfer aborted: %w", err)
		}

		result, retriable, err := s.attempt(ctx, fromID, toID, amount)
		if err == nil {
			return result, nil
		}

		if !retriable {
			return nil, err
		}

		if attempt+1 >= s.maxAttempts {
			logger.Log.Warn(
				"transfer retries exhausted",
				logger.String("from_id", fromID.String()),
				logger.String("to_id", toID.String()),
				logger.Int("attempts", s.maxAttempts),
			)
			return nil, fmt.Errorf("%w after %d attempts", domain.ErrTransferConflict, s.maxAttempts)
		}

		if err := sleep(ctx, backoff.ExponentialWithJitter(s.backoffBase, attempt)); err != nil {
			return nil, fmt.Errorf("transfer aborted: %w", err)
		}
	}
}

// attempt runs one pass of the read-validate-write protocol. The second
// return value reports whether the failure was a version conflict worth
// retrying from fresh reads.
func (s *TransferService) attempt(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*domain.TransferResult, bool, error) {
	from, err := s.readAccount(ctx, fromID)
	if err != nil {
		return nil, false, err
	}

	to, err := s.readAccount(ctx, toID)
	if err != nil {
		return nil, false, err
	}

	if !from.Active {
		return nil, false, &domain.InactiveAccountError{AccountID: from.ID}
	}

	if !to.Active {
		return nil, false, &domain.InactiveAccountError{AccountID: to.ID}
	}

	if from.Balance.LessThan(amount) {
		return nil, false, &domain.InsufficientFundsError{
			AccountID: from.ID,
			Available: from.Balance,
			Requested: amount,
		}
	}

	debited := *from
	debited.Balance = from.Balance.Sub(amount)

	fromVersion, err := s.accounts.ConditionalPut(ctx, &debited, from.Version)
	if err != nil {
		// Nothing committed yet, so a conflict just means re-run.
		return nil, errors.Is(err, domain.ErrVersionConflict), err
	}

	credited := *to
	credited.Balance = to.Balance.Add(amount)

	toVersion, err := s.accounts.ConditionalPut(ctx, &credited, to.Version)
	if err == nil {
		return &domain.TransferResult{
			FromBalance: debited.Balance,
			ToBalance:   credited.Balance,
			FromVersion: fromVersion,
			ToVersion:   toVersion,
		}, false, nil
	}

	// The debit committed but the credit did not. Reverse the debit before
	// reporting anything, even if the caller's deadline already expired.
	if reverseErr := s.reverseDebit(context.WithoutCancel(ctx), fromID, amount); reverseErr != nil {
		reversal := &domain.ReversalError{AccountID: fromID, Cause: reverseErr}
		logger.Log.Error(
			"debit reversal failed, manual reconciliation required",
			logger.String("from_id", fromID.String()),
			logger.String("to_id", toID.String()),
			logger.String("amount", amount.String()),
			logger.Error(reverseErr),
		)
		return nil, false, reversal
	}

	return nil, errors.Is(err, domain.ErrVersionConflict), err
}

// reverseDebit restores amount to the source account with a fresh
// conditional write. Concurrent writers may move the version underneath us,
// so it retries a few times on its own.
func (s *TransferService) reverseDebit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	var lastErr error

	for attempt := 0; attempt < reversalAttempts; attempt++ {
		account, err := s.accounts.Account(ctx, accountID)
		if err != nil {
			lastErr = err
			continue
		}

		restored := *account
		restored.Balance = account.Balance.Add(amount)

		if _, err := s.accounts.ConditionalPut(ctx, &restored, account.Version); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return lastErr
}

// Transfer executes a transfer and records its outcome in the ledger.
// Recording is best effort: a ledger write failure is logged, not surfaced,
// because the balance mutation has already committed or cleanly aborted.
func (s *TransferService) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*domain.TransferResult, error) {
	result, err := s.Execute(ctx, fromID, toID, amount)

	now := time.Now()
	record := &domain.Transfer{
		ID:          uuid.New(),
		FromID:      fromID,
		ToID:        toID,
		Amount:      amount,
		Status:      domain.TransferStatusCompleted,
		CreatedAt:   now,
		ProcessedAt: &now,
	}
	if err != nil {
		record.Status = domain.TransferStatusFailed
		record.FailureReason = err.Error()
	}

	if recordErr := s.ledger.CreateTransfer(ctx, record); recordErr != nil {
		logger.Log.Error("error recording transfer", logger.String("transfer_id", record.ID.String()), logger.Error(recordErr))
	}

	return result, err
}

// Submit queues a transfer for asynchronous execution. Request-shape
// validation happens here so malformed transfers never reach the queue;
// account-state validation happens when the processor executes it.
func (s *TransferService) Submit(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*domain.Transfer, error) {
	if fromID == uuid.Nil || toID == uuid.Nil {
		return nil, domain.ErrMissingAccountID
	}

	if !amount.IsPositive() {
		return nil, domain.ErrNonPositiveAmount
	}

	if fromID == toID {
		return nil, domain.ErrSameAccount
	}

	transfer := &domain.Transfer{
		ID:        uuid.New(),
		FromID:    fromID,
		ToID:      toID,
		Amount:    amount,
		Status:    domain.TransferStatusNew,
		CreatedAt: time.Now(),
	}

	if err := s.ledger.CreateTransfer(ctx, transfer); err != nil {
		return nil, err
	}

	return transfer, nil
}

// History returns the transfer records involving the given account.
func (s *TransferService) History(ctx context.Context, accountID uuid.UUID) ([]domain.Transfer, error) {
	return s.ledger.Transfers(ctx, accountID)
}

func (s *TransferService) readAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.Account(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, &domain.NotFoundError{AccountID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("error reading account %s: %w", id, err)
	}

	return account, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
