package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestParseBatchPolicy(t *testing.T) {
	p, err := ledger.ParseBatchPolicy("", ledger.BatchAllOrNothing)
	require.NoError(t, err)
	assert.Equal(t, ledger.BatchAllOrNothing, p)

	p, err = ledger.ParseBatchPolicy(" Best_Effort ", ledger.BatchAllOrNothing)
	require.NoError(t, err)
	assert.Equal(t, ledger.BatchBestEffort, p)

	_, err = ledger.ParseBatchPolicy("saga", ledger.BatchBestEffort)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// pedido de tres líneas: una reservable, una sin stock suficiente y una de SKU inexistente.
func mixedOrder(t *testing.T, f *fixture) []ledger.ReserveLine {
	t.Helper()
	f.receive(t, key("A", ""), 10)
	f.receive(t, key("B", ""), 1)
	return []ledger.ReserveLine{
		{Key: key("A", ""), Quantity: d(4)},
		{Key: key("B", ""), Quantity: d(3)},
		{Key: key("C", ""), Quantity: d(1)},
	}
}

func TestReserveMany_BestEffortReservaLoPosible(t *testing.T) {
	f := newFixture(t)
	lines := mixedOrder(t, f)

	res, err := f.engine.ReserveMany(context.Background(), ledger.ReserveManyCommand{
		OrderID: "ORD-1", Lines: lines, Policy: ledger.BatchBestEffort,
	})
	require.NoError(t, err)
	assert.False(t, res.FullyReserved)
	require.Len(t, res.Reservations, 1)
	assert.Equal(t, "A", res.Reservations[0].SKU)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, "B", res.Failures[0].SKU)
	assert.Equal(t, ledger.ReasonInsufficientStock, res.Failures[0].Reason)
	assert.True(t, res.Failures[0].Requested.Equal(d(3)))
	assert.True(t, res.Failures[0].Available.Equal(d(1)))
	assert.Equal(t, ledger.ReasonNotFound, res.Failures[1].Reason)

	assert.True(t, f.item(t, key("A", "")).Held.Equal(d(4)))
}

func TestReserveMany_TodoONadaNoDejaRastro(t *testing.T) {
	f := newFixture(t)
	lines := mixedOrder(t, f)

	res, err := f.engine.ReserveMany(context.Background(), ledger.ReserveManyCommand{
		OrderID: "ORD-1", Lines: lines, Policy: ledger.BatchAllOrNothing,
	})
	require.NoError(t, err)
	assert.False(t, res.FullyReserved)
	assert.Empty(t, res.Reservations)
	assert.Len(t, res.Failures, 2)

	a := key("A", "")
	assert.True(t, f.item(t, a).Held.IsZero(), "la línea A se revirtió")
	assert.Len(t, f.movements(t, a), 1, "solo el receipt")
	list, err := f.store.Reservations().ListByOrder(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

// Dos líneas del mismo ítem comparten la fila bloqueada y se validan contra el disponible acumulado.
func TestReserveMany_TodoONadaMismoItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := key("A", "")
	f.receive(t, a, 6)
	exp := f.clock.Now().Add(time.Hour)

	res, err := f.engine.ReserveMany(ctx, ledger.ReserveManyCommand{
		OrderID: "ORD-1", Policy: ledger.BatchAllOrNothing, ExpiresAt: &exp,
		Lines: []ledger.ReserveLine{{Key: a, Quantity: d(3)}, {Key: a, Quantity: d(3)}},
	})
	require.NoError(t, err)
	assert.True(t, res.FullyReserved)
	require.Len(t, res.Reservations, 2)
	assert.Equal(t, exp, *res.Reservations[0].ExpiresAt)
	assert.True(t, f.item(t, a).Available().IsZero())

	res, err = f.engine.ReserveMany(ctx, ledger.ReserveManyCommand{
		OrderID: "ORD-2", Policy: ledger.BatchAllOrNothing,
		Lines: []ledger.ReserveLine{{Key: a, Quantity: d(1)}},
	})
	require.NoError(t, err)
	assert.False(t, res.FullyReserved)
	f.requireReplay(t, a)
}

func TestReserveMany_LineaInvalida(t *testing.T) {
	f := newFixture(t)
	f.receive(t, key("A", ""), 5)

	res, err := f.engine.ReserveMany(context.Background(), ledger.ReserveManyCommand{
		OrderID: "ORD-1",
		Lines:   []ledger.ReserveLine{{Key: key("A", ""), Quantity: d(0)}},
	})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, ledger.ReasonInvalidQuantity, res.Failures[0].Reason)
}

func TestReserveMany_ComandoInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ReserveMany(context.Background(), ledger.ReserveManyCommand{OrderID: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.ReserveMany(context.Background(), ledger.ReserveManyCommand{
		OrderID: "O", Policy: "saga", Lines: []ledger.ReserveLine{{Key: key("A", ""), Quantity: d(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReserveMany_ReservasDelPedido(t *testing.T) {
	f := newFixture(t)
	f.receive(t, key("A", ""), 5)
	f.receive(t, key("B", ""), 5)

	_, err := f.engine.ReserveMany(context.Background(), ledger.ReserveManyCommand{
		OrderID: "ORD-9",
		Lines:   []ledger.ReserveLine{{Key: key("A", ""), Quantity: d(1)}, {Key: key("B", ""), Quantity: d(2)}},
	})
	require.NoError(t, err)

	list, err := f.store.Reservations().ListByOrder(context.Background(), "ORD-9")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, r := range list {
		assert.Equal(t, entity.ReservationPending, r.Status)
	}
}
