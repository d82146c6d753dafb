package customer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/simonkvalheim/hm9-accounts/internal/ledger"
)

const cacheKeyPrefix = "customers:exists:"

// CachedDirectory remembers customers that were found to exist.
// Negative answers are never cached so a newly registered customer is seen
// on the next call. Cache failures fall through to the wrapped directory.
type CachedDirectory struct {
	next   ledger.CustomerDirectory
	client redis.Cmdable
	ttl    time.Duration
}

// NewCachedDirectory wraps next with a Redis-backed existence cache
func NewCachedDirectory(next ledger.CustomerDirectory, client redis.Cmdable, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{next: next, client: client, ttl: ttl}
}

// Exists answers from the cache when possible
func (d *CachedDirectory) Exists(ctx context.Context, customerID uuid.UUID) (bool, error) {
	key := cacheKey(customerID)

	hit, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		slog.Warn("customer cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if hit > 0 {
		return true, nil
	}

	exists, err := d.next.Exists(ctx, customerID)
	if err != nil || !exists {
		return exists, err
	}

	if err := d.client.Set(ctx, key, "1", d.ttl).Err(); err != nil {
		slog.Warn("customer cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return true, nil
}

func cacheKey(customerID uuid.UUID) string {
	return cacheKeyPrefix + customerID.String()
}
