package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/shopspring/decimal"
)

type accountRepository interface {
	CreateAccount(ctx context.Context, name string, initialBalance decimal.Decimal) (*domain.Account, error)
	Account(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Accounts(ctx context.Context) ([]domain.Account, error)
	ConditionalPut(ctx context.Context, account *domain.Account, expectedVersion int64) (int64, error)
}

// AccountService covers the administrative account operations around the
// transfer engine: creation, listing, and soft deletion.
type AccountService struct {
	repo accountRepository
}

func NewAccountService(repo accountRepository) *AccountService {
	return &AccountService{repo: repo}
}

func (s *AccountService) Create(ctx context.Context, name string, initialBalance decimal.Decimal) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("account name is required")
	}

	if initialBalance.IsNegative() {
		return nil, errors.New("initial balance must not be negative")
	}

	return s.repo.CreateAccount(ctx, name, initialBalance)
}

func (s *AccountService) Account(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.repo.Account(ctx, id)
}

func (s *AccountService) Accounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.Accounts(ctx)
}

// Deactivate soft-deletes an account. It goes through the same
// version-checked write as every other mutation, so a concurrent transfer
// cannot resurrect the flag; on conflict the flip is retried from a fresh
// read.
func (s *AccountService) Deactivate(ctx context.Context, id uuid.UUID) error {
	for {
		account, err := s.repo.Account(ctx, id)
		if err != nil {
			return err
		}

		if !account.Active {
			return nil
		}

		deactivated := *account
		deactivated.Active = false

		_, err = s.repo.ConditionalPut(ctx, &deactivated, account.Version)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
