package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkAndIncrement runs atomically on the server. KEYS[1] is the counter,
// ARGV[1] the limit, ARGV[2] the window in milliseconds.
var checkAndIncrement = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return 0
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// RedisStore shares counters between gateway instances through Redis. Keys
// expire with their window, so no sweep is needed.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

// NewRedisStore wraps client. Keys are stored as prefix + client key.
func NewRedisStore(client redis.Scripter, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}
	return client, nil
}

// CheckAndIncrement implements Store.
func (s *RedisStore) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	allowed, err := checkAndIncrement.Run(ctx, s.client, []string{s.prefix + key}, limit, window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	return allowed == 1, nil
}
