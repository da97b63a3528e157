package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionalPut(t *testing.T) {
	store := New()

	account, err := store.CreateAccount(context.Background(), "lunch", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Equal(t, int64(0), account.Version)

	updated := *account
	updated.Balance = decimal.NewFromInt(80)

	version, err := store.ConditionalPut(context.Background(), &updated, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// The stale writer loses.
	stale := *account
	stale.Balance = decimal.NewFromInt(60)
	_, err = store.ConditionalPut(context.Background(), &stale, 0)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	current, err := store.Account(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, int64(1), current.Version)
}

func TestConditionalPutUnknownAccount(t *testing.T) {
	store := New()

	ghost := domain.Account{ID: uuid.New(), Balance: decimal.NewFromInt(10)}
	_, err := store.ConditionalPut(context.Background(), &ghost, 0)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestConditionalPutRejectsNegativeBalance(t *testing.T) {
	store := New()

	account, err := store.CreateAccount(context.Background(), "lunch", decimal.NewFromInt(10))
	require.NoError(t, err)

	overdrawn := *account
	overdrawn.Balance = decimal.NewFromInt(-1)

	_, err = store.ConditionalPut(context.Background(), &overdrawn, 0)
	assert.Error(t, err)

	current, err := store.Account(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current.Version)
}

func TestCreateAccountDuplicateName(t *testing.T) {
	store := New()

	_, err := store.CreateAccount(context.Background(), "lunch", decimal.Zero)
	require.NoError(t, err)

	_, err = store.CreateAccount(context.Background(), "lunch", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrAccountExists)
}

func TestTransferQueue(t *testing.T) {
	store := New()

	first := &domain.Transfer{
		ID:        uuid.New(),
		FromID:    uuid.New(),
		ToID:      uuid.New(),
		Amount:    decimal.NewFromInt(10),
		Status:    domain.TransferStatusNew,
		CreatedAt: time.Now().Add(-time.Minute),
	}
	second := &domain.Transfer{
		ID:        uuid.New(),
		FromID:    first.FromID,
		ToID:      first.ToID,
		Amount:    decimal.NewFromInt(20),
		Status:    domain.TransferStatusNew,
		CreatedAt: time.Now(),
	}

	require.NoError(t, store.CreateTransfer(context.Background(), first))
	require.NoError(t, store.CreateTransfer(context.Background(), second))

	pending, err := store.FetchPendingTransfers(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	require.NoError(t, store.UpdateTransferStatus(context.Background(), first.ID, domain.TransferStatusCompleted, ""))

	pending, err = store.FetchPendingTransfers(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	history, err := store.Transfers(context.Background(), first.FromID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	for _, transfer := range history {
		if transfer.ID == first.ID {
			assert.Equal(t, domain.TransferStatusCompleted, transfer.Status)
			assert.NotNil(t, transfer.ProcessedAt)
		}
	}
}

func TestUpdateTransferStatusMissing(t *testing.T) {
	store := New()

	err := store.UpdateTransferStatus(context.Background(), uuid.New(), domain.TransferStatusFailed, "boom")
	assert.ErrorIs(t, err, domain.ErrTransferMissing)
}
