package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mvasenkov/benefits/internal/domain"
	"github.com/mvasenkov/benefits/pkg/logger"
	"github.com/shopspring/decimal"
)

type transferQueue interface {
	FetchPendingTransfers(ctx context.Context) ([]domain.Transfer, error)
	UpdateTransferStatus(ctx context.Context, id uuid.UUID, status, failureReason string) error
}

type transferExecutor interface {
	Execute(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*domain.TransferResult, error)
}

// TransferProcessor drains queued transfers through the engine. A ticker
// goroutine feeds pending transfers into a channel and a fixed pool of
// workers executes them; a transfer stays NEW until its outcome is recorded,
// so a crashed run is simply picked up again.
type TransferProcessor struct {
	queue        transferQueue
	executor     transferExecutor
	pollInterval time.Duration
	workerCount  int

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewTransferProcessor(queue transferQueue, executor transferExecutor, pollInterval time.Duration, workerCount int) *TransferProcessor {
	return &TransferProcessor{
		queue:        queue,
		executor:     executor,
		pollInterval: pollInterval,
		workerCount:  workerCount,
		inFlight:     make(map[uuid.UUID]struct{}),
	}
}

// Run starts the polling goroutine and the worker pool. It returns
// immediately; everything stops when ctx is cancelled.
func (p *TransferProcessor) Run(ctx context.Context) {
	transfers := p.extractTransfers(ctx)

	for i := 0; i < p.workerCount; i++ {
		go p.worker(ctx, transfers)
	}
}

func (p *TransferProcessor) extractTransfers(ctx context.Context) <-chan domain.Transfer {
	out := make(chan domain.Transfer, 1024)
	ticker := time.NewTicker(p.pollInterval)

	go func() {
		defer ticker.Stop()
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pending, err := p.queue.FetchPendingTransfers(ctx)
				if err != nil {
					logger.Log.Error("error fetching pending transfers", logger.Error(err))
					continue
				}

				for _, transfer := range pending {
					if !p.claim(transfer.ID) {
						continue
					}

					select {
					case out <- transfer:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}

func (p *TransferProcessor) worker(ctx context.Context, transfers <-chan domain.Transfer) {
	for {
		select {
		case <-ctx.Done():
			return
		case transfer, ok := <-transfers:
			if !ok {
				return
			}

			p.process(ctx, transfer)
			p.release(transfer.ID)
		}
	}
}

func (p *TransferProcessor) process(ctx context.Context, transfer domain.Transfer) {
	status := domain.TransferStatusCompleted
	failureReason := ""

	_, err := p.executor.Execute(ctx, transfer.FromID, transfer.ToID, transfer.Amount)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Shutdown, not an outcome. Leave the transfer NEW for the next run.
			return
		}

		status = domain.TransferStatusFailed
		failureReason = err.Error()
	}

	if err := p.queue.UpdateTransferStatus(ctx, transfer.ID, status, failureReason); err != nil {
		logger.Log.Error(
			"error updating transfer status",
			logger.String("transfer_id", transfer.ID.String()),
			logger.String("status", status),
			logger.Error(err),
		)
		return
	}

	logger.Log.Info(
		"transfer processed",
		logger.String("transfer_id", transfer.ID.String()),
		logger.String("status", status),
	)
}

// claim marks a transfer as owned by this processor run so overlapping polls
// do not execute it twice.
func (p *TransferProcessor) claim(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, taken := p.inFlight[id]; taken {
		return false
	}

	p.inFlight[id] = struct{}{}

	return true
}

func (p *TransferProcessor) release(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.inFlight, id)
}
