package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *DocumentCache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	c, err := NewDocumentCache(Config{Addr: endpoint, TTL: time.Minute}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDocumentCacheRoundTrip(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "report-pdf:2:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	doc := []byte("%PDF-1.3\nbinary\x00payload")
	require.NoError(t, c.Set(ctx, "report-pdf:2:DFVD-1", doc))

	got, ok, err := c.Get(ctx, "report-pdf:2:DFVD-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, doc, got)

	require.NoError(t, c.Delete(ctx, "report-pdf:2:DFVD-1"))
	_, ok, err = c.Get(ctx, "report-pdf:2:DFVD-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewDocumentCacheFailsWithoutServer(t *testing.T) {
	_, err := NewDocumentCache(Config{Addr: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}
