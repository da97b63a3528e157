// Package memory holds an in-memory account and transfer store with the
// same conditional-write semantics as the Postgres store. It backs local
// runs without a database and the service-level tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]domain.Account
	names     map[string]struct{}
	transfers map[uuid.UUID]domain.Transfer
}

func New() *Store {
	return &Store{
		accounts:  make(map[uuid.UUID]domain.Account),
		names:     make(map[string]struct{}),
		transfers: make(map[uuid.UUID]domain.Transfer),
	}
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) CreateAccount(_ context.Context, name string, initialBalance decimal.Decimal) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.names[name]; taken {
		return nil, domain.ErrAccountExists
	}

	account := domain.Account{
		ID:        uuid.New(),
		Name:      name,
		Balance:   initialBalance,
		Active:    true,
		Version:   0,
		CreatedAt: time.Now(),
	}

	s.accounts[account.ID] = account
	s.names[name] = struct{}{}

	return &account, nil
}

func (s *Store) Account(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return &account, nil
}

func (s *Store) Accounts(_ context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return accounts, nil
}

// ConditionalPut applies balance and active atomically under the store lock,
// but only when the stored version still matches expectedVersion.
func (s *Store) ConditionalPut(_ context.Context, account *domain.Account, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[account.ID]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}

	if stored.Version != expectedVersion {
		return 0, domain.ErrVersionConflict
	}

	if account.Balance.IsNegative() {
		return 0, errors.New("balance must not be negative")
	}

	stored.Balance = account.Balance
	stored.Active = account.Active
	stored.Version++
	s.accounts[account.ID] = stored

	return stored.Version, nil
}

func (s *Store) CreateTransfer(_ context.Context, transfer *domain.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transfers[transfer.ID] = *transfer

	return nil
}

func (s *Store) Transfers(_ context.Context, accountID uuid.UUID) ([]domain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var transfers []domain.Transfer
	for _, transfer := range s.transfers {
		if transfer.FromID == accountID || transfer.ToID == accountID {
			transfers = append(transfers, transfer)
		}
	}

	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].CreatedAt.After(transfers[j].CreatedAt)
	})

	return transfers, nil
}

func (s *Store) FetchPendingTransfers(_ context.Context) ([]domain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []domain.Transfer
	for _, transfer := range s.transfers {
		if transfer.Status == domain.TransferStatusNew {
			pending = append(pending, transfer)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	return pending, nil
}

func (s *Store) UpdateTransferStatus(_ context.Context, id uuid.UUID, status, failureReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transfer, ok := s.transfers[id]
	if !ok {
		return domain.ErrTransferMissing
	}

	now := time.Now()
	transfer.Status = status
	transfer.FailureReason = failureReason
	transfer.ProcessedAt = &now
	s.transfers[id] = transfer

	return nil
}
