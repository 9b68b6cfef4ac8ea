package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const keyPrefix = "stock-ledger:item:"

// StockCache lecturas de ítems cacheadas en Redis. Tras cada commit del ledger la entrada se
// reemplaza por una marca con la versión confirmada; una escritura con versión anterior se descarta.
// El TTL acota cualquier lectura obsoleta si una invalidación se pierde.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewStockCache construye la caché. ttl <= 0 toma 30s.
func NewStockCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *StockCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StockCache{client: client, ttl: ttl, log: log.With().Str(logger.FieldComponent, "stock_cache").Logger()}
}

type cachedItem struct {
	ID              string           `json:"id,omitempty"`
	SKU             string           `json:"sku"`
	Location        string           `json:"location"`
	OnHand          decimal.Decimal  `json:"on_hand"`
	Held            decimal.Decimal  `json:"held"`
	ReorderPoint    *decimal.Decimal `json:"reorder_point,omitempty"`
	ReorderQuantity decimal.Decimal  `json:"reorder_quantity"`
	Backorderable   bool             `json:"backorderable"`
	Version         int64            `json:"version"`
	Tombstone       bool             `json:"tombstone,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// setIfNotOlder escribe ARGV[1] salvo que la entrada actual tenga una versión mayor que ARGV[2].
// Devuelve 1 si escribió.
var setIfNotOlder = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' and tonumber(doc['version']) and tonumber(doc['version']) > tonumber(ARGV[2]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

func cacheKey(key entity.ItemKey) string { return keyPrefix + key.Encode() }

// Get devuelve el ítem cacheado; ok=false ante fallo, ausencia o marca de invalidación.
func (c *StockCache) Get(ctx context.Context, key entity.ItemKey) (*entity.InventoryItem, bool) {
	val, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key.String()).Msg("lectura de caché falló")
		}
		return nil, false
	}
	var ci cachedItem
	if err := json.Unmarshal(val, &ci); err != nil || ci.Tombstone {
		return nil, false
	}
	return &entity.InventoryItem{
		ID: ci.ID, SKU: ci.SKU, Location: ci.Location,
		OnHand: ci.OnHand, Held: ci.Held,
		ReorderPoint: ci.ReorderPoint, ReorderQuantity: ci.ReorderQuantity,
		Backorderable: ci.Backorderable, Version: ci.Version,
		CreatedAt: ci.CreatedAt, UpdatedAt: ci.UpdatedAt,
	}, true
}

// Set guarda el ítem leído de la base. Si entretanto se confirmó una versión mayor, no escribe.
func (c *StockCache) Set(ctx context.Context, item *entity.InventoryItem) {
	c.write(ctx, item.Key(), cachedItem{
		ID: item.ID, SKU: item.SKU, Location: item.Location,
		OnHand: item.OnHand, Held: item.Held,
		ReorderPoint: item.ReorderPoint, ReorderQuantity: item.ReorderQuantity,
		Backorderable: item.Backorderable, Version: item.Version,
		CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt,
	})
}

// Invalidate deja una marca con la versión confirmada de cada ítem modificado.
func (c *StockCache) Invalidate(ctx context.Context, items ...*entity.InventoryItem) {
	// Sin cancelación: la operación ya confirmó.
	ctx = context.WithoutCancel(ctx)
	for _, it := range items {
		c.write(ctx, it.Key(), cachedItem{SKU: it.SKU, Location: it.Location, Version: it.Version, Tombstone: true})
	}
}

func (c *StockCache) write(ctx context.Context, key entity.ItemKey, ci cachedItem) {
	data, err := json.Marshal(ci)
	if err != nil {
		return
	}
	written, err := setIfNotOlder.Run(ctx, c.client, []string{cacheKey(key)}, data, ci.Version, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warn().Err(err).Str("key", key.String()).Bool("tombstone", ci.Tombstone).Msg("escritura de caché falló")
		return
	}
	if written == 0 {
		c.log.Debug().Str("key", key.String()).Int64("version", ci.Version).Msg("versión cacheada más nueva, escritura descartada")
	}
}

func (c *StockCache) Name() string { return "redis" }

// Ping verifica la conexión a Redis.
func (c *StockCache) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }
