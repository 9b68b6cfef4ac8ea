//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
)

func TestStockCache_ConRedisReal(t *testing.T) {
	ctx := context.Background()

	c, client := startCache(t)
	require.NoError(t, c.Ping(ctx))

	k := entity.NewItemKey("SKU-1", "BOG")
	item := entity.NewInventoryItem("id-1", k, time.Now().UTC())
	item.OnHand = decimal.NewFromInt(12)
	item.Held = decimal.NewFromInt(2)
	rp := decimal.NewFromInt(5)
	item.ReorderPoint = &rp
	item.Version = 3

	_, ok := c.Get(ctx, k)
	assert.False(t, ok)

	c.Set(ctx, item)
	got, ok := c.Get(ctx, k)
	require.True(t, ok)
	assert.True(t, got.OnHand.Equal(item.OnHand))
	assert.True(t, got.Available().Equal(decimal.NewFromInt(10)))
	assert.True(t, got.ReorderPoint.Equal(rp))
	assert.Equal(t, int64(3), got.Version)

	ttl, err := client.TTL(ctx, "stock-ledger:item:"+k.Encode()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	committed := item.Clone()
	committed.Version = 4
	c.Invalidate(ctx, committed)
	_, ok = c.Get(ctx, k)
	assert.False(t, ok)
}

// Un lector que cargó la versión 1 antes del commit no puede reinstalarla después de la invalidación.
func TestStockCache_LecturaViejaNoPisaInvalidacion(t *testing.T) {
	ctx := context.Background()
	c, _ := startCache(t)

	k := entity.NewItemKey("SKU-1", "BOG")
	stale := entity.NewInventoryItem("id-1", k, time.Now().UTC())
	stale.OnHand, stale.Version = decimal.NewFromInt(10), 1

	fresh := stale.Clone()
	fresh.OnHand, fresh.Version = decimal.NewFromInt(6), 2

	c.Invalidate(ctx, fresh)
	c.Set(ctx, stale)
	_, ok := c.Get(ctx, k)
	assert.False(t, ok, "la escritura vieja se descarta")

	c.Set(ctx, fresh)
	got, ok := c.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Version)
	assert.True(t, got.OnHand.Equal(decimal.NewFromInt(6)))

	c.Set(ctx, stale)
	got, ok = c.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Version)
}

func TestStockCache_ClavesConSeparadorNoColisionan(t *testing.T) {
	ctx := context.Background()
	c, _ := startCache(t)

	a := entity.NewInventoryItem("id-a", entity.NewItemKey("A@B", "C"), time.Now().UTC())
	a.OnHand = decimal.NewFromInt(1)
	b := entity.NewInventoryItem("id-b", entity.NewItemKey("A", "B@C"), time.Now().UTC())
	b.OnHand = decimal.NewFromInt(2)

	c.Set(ctx, a)
	c.Set(ctx, b)

	got, ok := c.Get(ctx, a.Key())
	require.True(t, ok)
	assert.Equal(t, "id-a", got.ID)
	got, ok = c.Get(ctx, b.Key())
	require.True(t, ok)
	assert.Equal(t, "id-b", got.ID)
}

func startCache(t *testing.T) (*cache.StockCache, *redis.Client) {
	t.Helper()
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewStockCache(client, time.Minute, zerolog.Nop()), client
}
