package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

const keyPrefix = "sparklens:analysis:"

// Redis shares cached analyses between replicas.
type Redis struct {
	rdb    *redis.Client
	schema string
}

// Connect creates a Redis client and verifies connectivity.
func Connect(url, schemaVersion string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(rdb, schemaVersion), nil
}

func NewRedis(rdb *redis.Client, schemaVersion string) *Redis {
	return &Redis{rdb: rdb, schema: schemaVersion}
}

func (r *Redis) key(fingerprint string) string {
	return keyPrefix + r.schema + ":" + fingerprint
}

func (r *Redis) Get(ctx context.Context, fingerprint string) (analysis.Analysis, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return analysis.Analysis{}, false, nil
	}
	if err != nil {
		return analysis.Analysis{}, false, fmt.Errorf("redis get: %w", err)
	}
	var a analysis.Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return analysis.Analysis{}, false, fmt.Errorf("decode cached analysis: %w", err)
	}
	return a, true, nil
}

func (r *Redis) Put(ctx context.Context, fingerprint string, a analysis.Analysis, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key(fingerprint), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error { return r.rdb.Close() }
