package locks_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/approvals/pkg/locks"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "redis")
	require.NoError(t, err)

	return ctx, endpoint
}

func TestRedis_LockAndRelease(t *testing.T) {
	ctx, url := setupRedis(t)

	locker, err := locks.NewRedisFromURL(ctx, url, slog.Default(), locks.WithRetryDelay(5*time.Millisecond))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = locker.Close()
	})

	unlock, err := locker.Lock(ctx, locks.RequestKey("r1"))
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(waitCtx, locks.RequestKey("r1"))
	require.ErrorIs(t, err, locks.ErrLockTimeout)

	other, err := locker.Lock(ctx, locks.RequestKey("r2"))
	require.NoError(t, err)
	other()

	unlock()

	again, err := locker.Lock(ctx, locks.RequestKey("r1"))
	require.NoError(t, err)
	again()
}

func TestRedis_ExpiredLockIsNotReleasedByFormerHolder(t *testing.T) {
	ctx, url := setupRedis(t)

	options, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(options)
	t.Cleanup(func() {
		_ = client.Close()
	})

	locker := locks.NewRedis(client, slog.Default(), locks.WithTTL(50*time.Millisecond), locks.WithRetryDelay(5*time.Millisecond))

	first, err := locker.Lock(ctx, "key")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	second, err := locker.Lock(ctx, "key")
	require.NoError(t, err)

	first()

	exists, err := client.Exists(ctx, "key").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	second()

	exists, err = client.Exists(ctx, "key").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
