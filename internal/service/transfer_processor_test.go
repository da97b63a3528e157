package service

import (
	"context"
	"testing"
	"time"

	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/mvasenkov/benefits/internal/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessorProcessesPendingTransfers(t *testing.T) {
	store := memory.New()
	from := createAccount(t, store, "lunch", 1000)
	to := createAccount(t, store, "travel", 500)

	svc := NewTransferService(store, store, testMaxAttempts, testBackoff)

	good, err := svc.Submit(context.Background(), from.ID, to.ID, decimal.NewFromInt(200))
	require.NoError(t, err)

	bad, err := svc.Submit(context.Background(), from.ID, to.ID, decimal.NewFromInt(5000))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor := NewTransferProcessor(store, svc, 10*time.Millisecond, 2)
	processor.Run(ctx)

	require.Eventually(t, func() bool {
		pending, err := store.FetchPendingTransfers(context.Background())
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)

	history, err := store.Transfers(context.Background(), from.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	byID := make(map[string]domain.Transfer, len(history))
	for _, transfer := range history {
		byID[transfer.ID.String()] = transfer
	}

	assert.Equal(t, domain.TransferStatusCompleted, byID[good.ID.String()].Status)
	assert.Equal(t, domain.TransferStatusFailed, byID[bad.ID.String()].Status)
	assert.Contains(t, byID[bad.ID.String()].FailureReason, "requested")

	currentFrom, err := store.Account(context.Background(), from.ID)
	require.NoError(t, err)
	currentTo, err := store.Account(context.Background(), to.ID)
	require.NoError(t, err)

	assert.True(t, currentFrom.Balance.Equal(decimal.NewFromInt(800)))
	assert.True(t, currentTo.Balance.Equal(decimal.NewFromInt(700)))
}
