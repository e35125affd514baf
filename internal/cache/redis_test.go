package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestGenerateKey(t *testing.T) {
	c := NewRedisCache(Options{Addr: "localhost:0"}, "store")
	defer c.Close()

	assert.Equal(t, "store:product:sourdough", c.GenerateKey("product", "sourdough"))
}

func setupRedis(t *testing.T) (Cache, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	c := NewRedisCache(Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())}, "test")
	require.NoError(t, c.Ping(ctx))

	return c, func() {
		_ = c.Close()
		_ = container.Terminate(ctx)
	}
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	c, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	key := c.GenerateKey("product", "rye")

	value, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, value, "miss is not an error")

	require.NoError(t, c.Set(ctx, key, `{"slug":"rye"}`, time.Minute))

	value, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"slug":"rye"}`, value)

	require.NoError(t, c.Delete(ctx, key))

	value, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, value)
}
