package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mvasenkov/benefits/internal/config"
	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/mvasenkov/benefits/internal/memory"
	"github.com/mvasenkov/benefits/internal/postgres"
	"github.com/mvasenkov/benefits/internal/service"
	"github.com/shopspring/decimal"
)

// Storage is everything the services need from a backing store. The
// Postgres store implements it for real deployments; the in-memory store
// covers local runs without a database.
type Storage interface {
	CreateAccount(ctx context.Context, name string, initialBalance decimal.Decimal) (*domain.Account, error)
	Account(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Accounts(ctx context.Context) ([]domain.Account, error)
	ConditionalPut(ctx context.Context, account *domain.Account, expectedVersion int64) (int64, error)
	CreateTransfer(ctx context.Context, transfer *domain.Transfer) error
	Transfers(ctx context.Context, accountID uuid.UUID) ([]domain.Transfer, error)
	FetchPendingTransfers(ctx context.Context) ([]domain.Transfer, error)
	UpdateTransferStatus(ctx context.Context, id uuid.UUID, status, failureReason string) error
	Close() error
}

type App struct {
	Config  *config.Config
	Storage Storage

	accountService  *service.AccountService
	transferService *service.TransferService
	processor       *service.TransferProcessor
}

func New(cfg *config.Config) (*App, error) {
	storage, err := initStorage(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	transferService := service.NewTransferService(storage, storage, cfg.TransferMaxAttempts, cfg.TransferBackoff)

	return &App{
		Config:          cfg,
		Storage:         storage,
		accountService:  service.NewAccountService(storage),
		transferService: transferService,
		processor:       service.NewTransferProcessor(storage, transferService, cfg.ProcessorInterval, cfg.ProcessorWorkers),
	}, nil
}

func initStorage(url string) (Storage, error) {
	if url == "" {
		return memory.New(), nil
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("error closing database after ping failure: %w", closeErr)
		}
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	store := postgres.New(db)
	if err := store.Bootstrap(context.Background()); err != nil {
		return nil, err
	}

	return store, nil
}

// Run starts the background transfer processor. It returns immediately and
// the processor stops when ctx is cancelled.
func (app *App) Run(ctx context.Context) {
	app.processor.Run(ctx)
}
