package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Registry backed by string keys with a PX expiry. Eviction is
// left to the server.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedis returns a registry writing keys as "<prefix>:<sha256 hex>".
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "rt"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) key(token string) string {
	return r.prefix + ":" + tokenKey(token)
}

func (r *Redis) Put(ctx context.Context, token string, entry Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode refresh entry: %w", err)
	}
	return r.rdb.Set(ctx, r.key(token), raw, ttl).Err()
}

func (r *Redis) Get(ctx context.Context, token string) (Entry, error) {
	raw, err := r.rdb.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, fmt.Errorf("decode refresh entry: %w", err)
	}
	return entry, nil
}

func (r *Redis) Delete(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, r.key(token)).Err()
}
