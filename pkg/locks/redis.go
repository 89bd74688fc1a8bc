package locks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL        = 30 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same redis server.
// Each lock expires after its TTL so a crashed holder cannot block a key forever.
type Redis struct {
	client     redis.UniversalClient
	logger     *slog.Logger
	ttl        time.Duration
	retryDelay time.Duration
}

type RedisOption func(*Redis)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

func WithRetryDelay(delay time.Duration) RedisOption {
	return func(r *Redis) {
		r.retryDelay = delay
	}
}

func NewRedis(client redis.UniversalClient, logger *slog.Logger, opts ...RedisOption) *Redis {
	r := &Redis{
		client:     client,
		logger:     logger,
		ttl:        defaultTTL,
		retryDelay: defaultRetryDelay,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewRedisFromURL connects to a redis:// URL and verifies the connection.
func NewRedisFromURL(ctx context.Context, url string, logger *slog.Logger, opts ...RedisOption) (*Redis, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewRedis(client, logger, opts...), nil
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	for {
		acquired, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w %s: %w", ErrLockTimeout, key, ctx.Err())
		case <-time.After(r.retryDelay):
		}
	}

	released := false

	return func() {
		if released {
			return
		}

		released = true

		// The caller's context may already be done; release regardless.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err()
		if err != nil {
			r.logger.WarnContext(releaseCtx, "Failed to release lock", "key", key, "error", err)
		}
	}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func newToken() (string, error) {
	buf := make([]byte, 16)

	_, err := rand.Read(buf)
	if err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
