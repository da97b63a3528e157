package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/mvasenkov/benefits/pkg/logger"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	balance NUMERIC NOT NULL CHECK (balance >= 0),
	active BOOLEAN NOT NULL DEFAULT TRUE,
	version BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transfers (
	id UUID PRIMARY KEY,
	from_id UUID NOT NULL REFERENCES accounts (id),
	to_id UUID NOT NULL REFERENCES accounts (id),
	amount NUMERIC NOT NULL,
	status TEXT NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	processed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS transfers_status_idx ON transfers (status) WHERE status = 'NEW';
`

type Postgres struct {
	DB *sql.DB
}

func New(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

func (p *Postgres) Close() error {
	return p.DB.Close()
}

// Bootstrap creates the schema when it does not exist yet.
func (p *Postgres) Bootstrap(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}

	return nil
}

func (p *Postgres) CreateAccount(ctx context.Context, name string, initialBalance decimal.Decimal) (*domain.Account, error) {
	account := domain.Account{
		ID:      uuid.New(),
		Name:    name,
		Balance: initialBalance,
		Active:  true,
		Version: 0,
	}

	err := p.DB.QueryRowContext(ctx,
		"INSERT INTO accounts (id, name, balance) VALUES ($1, $2, $3) RETURNING created_at",
		account.ID, account.Name, account.Balance,
	).Scan(&account.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			logger.Log.Warn("account name already taken", logger.String("name", name))
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	return &account, nil
}

func (p *Postgres) Account(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := p.DB.QueryRowContext(ctx,
		"SELECT id, name, balance, active, version, created_at FROM accounts WHERE id = $1", id)

	var account domain.Account
	err := row.Scan(&account.ID, &account.Name, &account.Balance, &account.Active, &account.Version, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("error fetching account: %w", err)
	}

	return &account, nil
}

func (p *Postgres) Accounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := p.DB.QueryContext(ctx,
		"SELECT id, name, balance, active, version, created_at FROM accounts ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("error fetching accounts: %w", err)
	}
	defer closeRows(rows)

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		err := rows.Scan(&account.ID, &account.Name, &account.Balance, &account.Active, &account.Version, &account.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

// ConditionalPut persists balance and active only if the stored version
// still equals expectedVersion, bumping the version in the same statement.
// The single UPDATE makes the compare-and-swap atomic without row locks.
func (p *Postgres) ConditionalPut(ctx context.Context, account *domain.Account, expectedVersion int64) (int64, error) {
	row := p.DB.QueryRowContext(ctx,
		"UPDATE accounts SET balance = $1, active = $2, version = version + 1 WHERE id = $3 AND version = $4 RETURNING version",
		account.Balance, account.Active, account.ID, expectedVersion)

	var newVersion int64
	if err := row.Scan(&newVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrVersionConflict
		}
		return 0, fmt.Errorf("error updating account: %w", err)
	}

	return newVersion, nil
}

func (p *Postgres) CreateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	_, err := p.DB.ExecContext(ctx,
		`INSERT INTO transfers (id, from_id, to_id, amount, status, failure_reason, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		transfer.ID, transfer.FromID, transfer.ToID, transfer.Amount,
		transfer.Status, transfer.FailureReason, transfer.CreatedAt, transfer.ProcessedAt)
	if err != nil {
		return fmt.Errorf("error creating transfer: %w", err)
	}

	return nil
}

func (p *Postgres) Transfers(ctx context.Context, accountID uuid.UUID) ([]domain.Transfer, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT id, from_id, to_id, amount, status, failure_reason, created_at, processed_at
		 FROM transfers WHERE from_id = $1 OR to_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("error fetching transfers: %w", err)
	}
	defer closeRows(rows)

	return scanTransfers(rows)
}

func (p *Postgres) FetchPendingTransfers(ctx context.Context) ([]domain.Transfer, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT id, from_id, to_id, amount, status, failure_reason, created_at, processed_at
		 FROM transfers WHERE status = 'NEW' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error fetching pending transfers: %w", err)
	}
	defer closeRows(rows)

	return scanTransfers(rows)
}

func (p *Postgres) UpdateTransferStatus(ctx context.Context, id uuid.UUID, status, failureReason string) error {
	_, err := p.DB.ExecContext(ctx,
		"UPDATE transfers SET status = $1, failure_reason = $2, processed_at = now() WHERE id = $3",
		status, failureReason, id)
	if err != nil {
		return fmt.Errorf("error updating transfer status: %w", err)
	}

	return nil
}

func scanTransfers(rows *sql.Rows) ([]domain.Transfer, error) {
	var transfers []domain.Transfer
	for rows.Next() {
		var transfer domain.Transfer
		err := rows.Scan(&transfer.ID, &transfer.FromID, &transfer.ToID, &transfer.Amount,
			&transfer.Status, &transfer.FailureReason, &transfer.CreatedAt, &transfer.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning transfer: %w", err)
		}
		transfers = append(transfers, transfer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transfers: %w", err)
	}

	return transfers, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Log.Error("error closing rows", logger.Error(err))
	}
}
