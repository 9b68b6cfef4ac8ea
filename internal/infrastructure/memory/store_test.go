package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

type (
	items = repository.InventoryItemRepository
	movs  = repository.MovementRepository
	rsvs  = repository.ReservationRepository
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// seed crea un ítem con on_hand y punto de reorden opcional.
func seed(t *testing.T, r *memory.TxRunner, k entity.ItemKey, onHand int64, reorderPoint *int64) {
	t.Helper()
	err := r.Run(context.Background(), func(it items, _ movs, _ rsvs) error {
		item := entity.NewInventoryItem(k.String(), k, now)
		item.OnHand = d(onHand)
		if reorderPoint != nil {
			rp := d(*reorderPoint)
			item.ReorderPoint = &rp
		}
		_, err := it.CreateIfAbsent(context.Background(), item)
		return err
	})
	require.NoError(t, err)
}

func TestTxRunner_RollbackDescartaCambios(t *testing.T) {
	store := memory.NewStore(time.Second)
	r := memory.NewTxRunner(store)
	k := entity.NewItemKey("SKU-1", "")
	seed(t, r, k, 5, nil)

	boom := errors.New("boom")
	err := r.Run(context.Background(), func(it items, m movs, _ rsvs) error {
		item, err := it.GetForUpdate(context.Background(), k)
		require.NoError(t, err)
		v := item.Version
		item.OnHand = d(99)
		require.NoError(t, it.Save(context.Background(), item, v))
		require.NoError(t, m.Append(context.Background(), &entity.Movement{ID: "m1", ItemID: item.ID, Type: entity.MovementAdjustment, Quantity: d(94)}))

		// Dentro de la transacción se leen las escrituras propias.
		again, err := it.Get(context.Background(), k)
		require.NoError(t, err)
		assert.True(t, again.OnHand.Equal(d(99)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Items().Get(context.Background(), k)
	require.NoError(t, err)
	assert.True(t, got.OnHand.Equal(d(5)))
	assert.Zero(t, got.Version)
	_, err = store.Movements().GetByID(context.Background(), "m1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTxRunner_SaveConVersionDesactualizada(t *testing.T) {
	store := memory.NewStore(time.Second)
	r := memory.NewTxRunner(store)
	k := entity.NewItemKey("SKU-1", "")
	seed(t, r, k, 5, nil)

	err := r.Run(context.Background(), func(it items, _ movs, _ rsvs) error {
		item, err := it.GetForUpdate(context.Background(), k)
		if err != nil {
			return err
		}
		return it.Save(context.Background(), item, item.Version+7)
	})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestTxRunner_CreateIfAbsentEsIdempotente(t *testing.T) {
	store := memory.NewStore(time.Second)
	r := memory.NewTxRunner(store)
	k := entity.NewItemKey("SKU-1", "")
	seed(t, r, k, 5, nil)

	err := r.Run(context.Background(), func(it items, _ movs, _ rsvs) error {
		created, err := it.CreateIfAbsent(context.Background(), entity.NewInventoryItem("otro", k, now))
		assert.False(t, created)
		return err
	})
	require.NoError(t, err)
	got, err := store.Items().Get(context.Background(), k)
	require.NoError(t, err)
	assert.Equal(t, k.String(), got.ID)
}

func TestTxRunner_TimeoutDeBloqueo(t *testing.T) {
	store := memory.NewStore(30 * time.Millisecond)
	r := memory.NewTxRunner(store)
	k := entity.NewItemKey("SKU-1", "")
	seed(t, r, k, 5, nil)

	locked, release := make(chan struct{}), make(chan struct{})
	go func() {
		_ = r.Run(context.Background(), func(it items, _ movs, _ rsvs) error {
			_, err := it.GetForUpdate(context.Background(), k)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked
	defer close(release)

	start := time.Now()
	err := r.Run(context.Background(), func(it items, _ movs, _ rsvs) error {
		_, err := it.GetForUpdate(context.Background(), k)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	// Otra clave no se ve afectada.
	other := entity.NewItemKey("SKU-2", "")
	seed(t, r, other, 1, nil)
}

func TestTxRunner_ClavesConSeparadorNoCompartenBloqueo(t *testing.T) {
	store := memory.NewStore(30 * time.Millisecond)
	r := memory.NewTxRunner(store)
	a := entity.NewItemKey("A@B", "C")
	b := entity.NewItemKey("A", "B@C")
	seed(t, r, a, 1, nil)
	seed(t, r, b, 1, nil)

	locked, release := make(chan struct{}), make(chan struct{})
	go func() {
		_ = r.Run(context.Background(), func(it items, _ movs, _ rsvs) error {
			_, err := it.GetForUpdate(context.Background(), a)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked
	defer close(release)

	err := r.Run(context.Background(), func(it items, _ movs, _ rsvs) error {
		got, err := it.GetForUpdate(context.Background(), b)
		if err == nil {
			assert.Equal(t, b, got.Key())
		}
		return err
	})
	assert.NoError(t, err)
}

func TestMovements_OrdenYCursor(t *testing.T) {
	store := memory.NewStore(time.Second)
	r := memory.NewTxRunner(store)
	k := entity.NewItemKey("SKU-1", "")
	seed(t, r, k, 0, nil)

	for i := 0; i < 5; i++ {
		err := r.Run(context.Background(), func(_ items, m movs, _ rsvs) error {
			return m.Append(context.Background(), &entity.Movement{ID: string(rune('a' + i)), ItemID: k.String(), Type: entity.MovementReceipt, Quantity: d(1)})
		})
		require.NoError(t, err)
	}

	all, err := store.Movements().ListByItem(context.Background(), k.String(), 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Seq, all[i-1].Seq)
	}

	page, err := store.Movements().ListByItem(context.Background(), k.String(), all[1].Seq, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[2].ID, page[0].ID)
	assert.Equal(t, all[3].ID, page[1].ID)
}

func TestItems_ListLowStockPorDeficit(t *testing.T) {
	store := memory.NewStore(time.Second)
	r := memory.NewTxRunner(store)
	five, ten := int64(5), int64(10)
	seed(t, r, entity.NewItemKey("A", "BOG"), 4, &five) // déficit 1
	seed(t, r, entity.NewItemKey("B", "BOG"), 0, &ten)  // déficit 10
	seed(t, r, entity.NewItemKey("C", "MED"), 2, &five) // déficit 3
	seed(t, r, entity.NewItemKey("D", "BOG"), 50, &ten) // no está bajo
	seed(t, r, entity.NewItemKey("E", "BOG"), 0, nil)   // sin punto

	list, err := store.Items().ListLowStock(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"B", "C", "A"}, []string{list[0].SKU, list[1].SKU, list[2].SKU})

	bog, err := store.Items().ListLowStock(context.Background(), "BOG", 1)
	require.NoError(t, err)
	require.Len(t, bog, 1)
	assert.Equal(t, "B", bog[0].SKU)
}

func TestReservations_ListExpired(t *testing.T) {
	store := memory.NewStore(time.Second)
	r := memory.NewTxRunner(store)
	k := entity.NewItemKey("SKU-1", "")
	seed(t, r, k, 10, nil)

	early, late := now.Add(time.Minute), now.Add(time.Hour)
	err := r.Run(context.Background(), func(it items, _ movs, rs rsvs) error {
		item, _ := it.Get(context.Background(), k)
		for i, exp := range []*time.Time{&late, &early, nil} {
			res := entity.NewReservation(string(rune('a'+i)), "ORD-1", item, d(1), exp, now)
			if err := rs.Create(context.Background(), res); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	expired, err := store.Reservations().ListExpired(context.Background(), now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "b", expired[0].ID, "el más antiguo primero")

	expired, err = store.Reservations().ListExpired(context.Background(), now.Add(2*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)

	byOrder, err := store.Reservations().ListByOrder(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Len(t, byOrder, 3)
}

func TestReservations_CreateDuplicado(t *testing.T) {
	store := memory.NewStore(time.Second)
	r := memory.NewTxRunner(store)
	k := entity.NewItemKey("SKU-1", "")
	seed(t, r, k, 10, nil)

	create := func() error {
		return r.Run(context.Background(), func(it items, _ movs, rs rsvs) error {
			item, _ := it.Get(context.Background(), k)
			return rs.Create(context.Background(), entity.NewReservation("r-1", "O", item, d(1), nil, now))
		})
	}
	require.NoError(t, create())
	assert.ErrorIs(t, create(), domain.ErrDuplicate)
}

func TestStore_Ping(t *testing.T) {
	store := memory.NewStore(0)
	assert.Equal(t, "memory", store.Name())
	assert.NoError(t, store.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Ping(ctx), context.Canceled)
}
