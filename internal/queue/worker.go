package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/hm9-accounts/internal/model"
)

// BalanceService applies balance operations
type BalanceService interface {
	Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error)
	Withdraw(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error)
}

// Worker consumes messages from the queue and applies them to accounts
type Worker struct {
	client  redis.Cmdable
	service BalanceService
	stopCh  chan struct{}
}

// NewWorker creates a new Worker
func NewWorker(client redis.Cmdable, service BalanceService) *Worker {
	return &Worker{
		client:  client,
		service: service,
		stopCh:  make(chan struct{}),
	}
}

// Start begins consuming messages from the queue.
// It blocks until the context is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("worker started, listening for operations", slog.String("queue", QueueName))

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping due to context cancellation")
			return
		case <-w.stopCh:
			slog.Info("worker stopping due to stop signal")
			return
		default:
			// Wait up to 5 seconds, then loop to check for a stop signal
			result, err := w.client.BLPop(ctx, 5*time.Second, QueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				slog.Error("error reading from queue", slog.String("error", err.Error()))
				time.Sleep(1 * time.Second)
				continue
			}

			// result[0] is the queue name, result[1] is the message
			if len(result) < 2 {
				continue
			}

			w.processMessage(ctx, result[1])
		}
	}
}

// Stop signals the worker to stop processing
func (w *Worker) Stop() {
	close(w.stopCh)
}

// processMessage handles a single message from the queue.
// Rejected operations (bad amount, missing account, insufficient funds) are
// logged and dropped; retrying them cannot succeed.
func (w *Worker) processMessage(ctx context.Context, data string) {
	var msg OperationMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		slog.Error("failed to unmarshal message", slog.String("error", err.Error()))
		return
	}

	log := slog.With(
		slog.String("operation_id", msg.OperationID.String()),
		slog.String("account_id", msg.AccountID.String()),
		slog.String("type", string(msg.Type)),
		slog.String("amount", msg.Amount.String()),
	)

	account, err := w.apply(ctx, msg)
	if err != nil {
		log.Error("operation failed", slog.String("error", err.Error()))
		return
	}

	log.Info("operation applied", slog.String("balance", account.Balance.String()))
}

func (w *Worker) apply(ctx context.Context, msg OperationMessage) (*model.Account, error) {
	switch msg.Type {
	case OperationDeposit:
		return w.service.Deposit(ctx, msg.AccountID, msg.Amount)
	case OperationWithdraw:
		return w.service.Withdraw(ctx, msg.AccountID, msg.Amount)
	default:
		return nil, fmt.Errorf("unknown operation type %q", msg.Type)
	}
}

// ProcessOne processes a single message synchronously (useful for testing).
// It reports whether a message was available.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	result, err := w.client.LPop(ctx, QueueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	w.processMessage(ctx, result)
	return true, nil
}
