package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NameRedis is the stats tag of the Redis backend.
const NameRedis = "redis"

// DefaultKeyPrefix namespaces mirrored keys inside a shared backend.
const DefaultKeyPrefix = "playoff:cache:"

const scanBatch = 100

// Redis mirrors cache writes into Redis using native key expiry.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: keyPrefix}
}

// NewRedisFromURL builds a client from a redis:// or rediss:// URL.
func NewRedisFromURL(rawURL, keyPrefix string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	// The selector owns retries; keep the client from stacking its own.
	opts.MaxRetries = 1
	opts.DialTimeout = 2 * time.Second
	return NewRedis(redis.NewClient(opts), keyPrefix), nil
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

func (r *Redis) Name() string { return NameRedis }

// Client returns the underlying client.
func (r *Redis) Client() *redis.Client { return r.client }

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// DeletePrefix walks the keyspace with SCAN and deletes matches in batches.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	pattern := escapeGlob(r.key(prefix)) + "*"
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete %d keys: %w", len(keys), err)
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeGlob quotes the characters SCAN MATCH treats as wildcards.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
