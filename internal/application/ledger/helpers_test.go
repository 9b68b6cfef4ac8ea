package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func dp(v int64) *decimal.Decimal {
	x := d(v)
	return &x
}

func key(sku, loc string) entity.ItemKey { return entity.NewItemKey(sku, loc) }

// clock reloj manual para controlar vencimientos.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(dur time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(dur)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []entity.LowStockEvent
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, evt entity.LowStockEvent) {
	n.mu.Lock()
	n.events = append(n.events, evt)
	n.mu.Unlock()
}

func (n *recordingNotifier) Events() []entity.LowStockEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]entity.LowStockEvent(nil), n.events...)
}

type panicNotifier struct{}

func (panicNotifier) NotifyLowStock(context.Context, entity.LowStockEvent) { panic("broker caído") }

type recordingInvalidator struct {
	mu       sync.Mutex
	keys     []entity.ItemKey
	versions map[entity.ItemKey]int64
}

func (r *recordingInvalidator) Invalidate(_ context.Context, items ...*entity.InventoryItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.versions == nil {
		r.versions = make(map[entity.ItemKey]int64)
	}
	for _, it := range items {
		r.keys = append(r.keys, it.Key())
		r.versions[it.Key()] = it.Version
	}
}

type fixture struct {
	engine      *ledger.Engine
	store       *memory.Store
	notifier    *recordingNotifier
	invalidator *recordingInvalidator
	clock       *clock
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithTimeout(t, time.Second)
}

func newFixtureWithTimeout(t *testing.T, lockTimeout time.Duration) *fixture {
	t.Helper()
	store := memory.NewStore(lockTimeout)
	f := &fixture{
		store:       store,
		notifier:    &recordingNotifier{},
		invalidator: &recordingInvalidator{},
		clock:       &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.engine = ledger.NewEngine(memory.NewTxRunner(store), f.notifier, f.invalidator, zerolog.Nop()).
		WithClock(f.clock.Now)
	return f
}

// receive deja on_hand = qty en un ítem nuevo.
func (f *fixture) receive(t *testing.T, k entity.ItemKey, qty int64) *entity.InventoryItem {
	t.Helper()
	res, err := f.engine.Receive(context.Background(), ledger.ReceiveCommand{Key: k, Quantity: d(qty), Reason: "receipt"})
	require.NoError(t, err)
	return res.Item
}

func (f *fixture) item(t *testing.T, k entity.ItemKey) *entity.InventoryItem {
	t.Helper()
	it, err := f.store.Items().Get(context.Background(), k)
	require.NoError(t, err)
	return it
}

func (f *fixture) movements(t *testing.T, k entity.ItemKey) []*entity.Movement {
	t.Helper()
	it := f.item(t, k)
	list, err := f.store.Movements().ListByItem(context.Background(), it.ID, 0, 0)
	require.NoError(t, err)
	return list
}

// requireReplay verifica que el ledger reconstruye on_hand y held del ítem.
func (f *fixture) requireReplay(t *testing.T, k entity.ItemKey) {
	t.Helper()
	it := f.item(t, k)
	list := f.movements(t, k)
	require.True(t, entity.ReplayOnHand(decimal.Zero, list).Equal(it.OnHand),
		"replay on_hand=%s, ítem=%s", entity.ReplayOnHand(decimal.Zero, list), it.OnHand)
	require.True(t, entity.ReplayHeld(list).Equal(it.Held),
		"replay held=%s, ítem=%s", entity.ReplayHeld(list), it.Held)
}
