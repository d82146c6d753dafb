package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	// QueueName is the Redis list key for pending balance operations
	QueueName = "accounts:operations"
)

// OperationType is the kind of balance change carried by a message
type OperationType string

const (
	OperationDeposit  OperationType = "deposit"
	OperationWithdraw OperationType = "withdraw"
)

// OperationMessage is the message published to the queue
type OperationMessage struct {
	OperationID uuid.UUID       `json:"operation_id"`
	AccountID   uuid.UUID       `json:"account_id"`
	Type        OperationType   `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	PublishedAt time.Time       `json:"published_at"`
}

// Publisher handles publishing messages to Redis
type Publisher struct {
	client redis.Cmdable
}

// NewPublisher creates a new Publisher
func NewPublisher(client redis.Cmdable) *Publisher {
	return &Publisher{client: client}
}

// PublishOperation queues a deposit or withdrawal and returns its operation ID
func (p *Publisher) PublishOperation(ctx context.Context, accountID uuid.UUID, opType OperationType, amount decimal.Decimal) (uuid.UUID, error) {
	msg := OperationMessage{
		OperationID: uuid.New(),
		AccountID:   accountID,
		Type:        opType,
		Amount:      amount,
		PublishedAt: time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	// RPUSH onto the tail, workers pop from the head (FIFO)
	if err := p.client.RPush(ctx, QueueName, data).Err(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to publish to queue: %w", err)
	}

	return msg.OperationID, nil
}

// QueueLength returns the current number of messages in the queue
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, QueueName).Result()
}
