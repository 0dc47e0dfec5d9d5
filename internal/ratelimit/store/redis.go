package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dayflow:rate:"

// Redis stores one JSON record per identity with a TTL matching the
// record's window, so expiry replaces the lazy sweep. Use this store when
// running more than one instance behind a load balancer; the accounting
// must live in a shared registry to stay correct.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps an existing redis client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (Record, bool, error) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("rate record get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, false, fmt.Errorf("rate record decode: %w", err)
	}
	return rec, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("rate record encode: %w", err)
	}

	ttl := time.Until(rec.WindowResetAt)
	if ttl <= 0 {
		// Window already passed; keep the record around just long enough
		// for the next check to observe and reset it.
		ttl = time.Second
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("rate record put: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("rate record delete: %w", err)
	}
	return nil
}

// Sweep is a no-op: redis expires records via TTL.
func (r *Redis) Sweep(ctx context.Context, now time.Time) error {
	return nil
}

// Ping verifies connectivity. Used by the readiness checker.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
