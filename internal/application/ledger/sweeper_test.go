package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestSweeper_VenceReservasPendientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := key("SKU-1", "")
	f.receive(t, k, 10)

	exp := f.clock.Now().Add(time.Minute)
	expiring, err := f.engine.Reserve(ctx, ledger.ReserveCommand{Key: k, Quantity: d(3), OrderID: "ORD-1", ExpiresAt: &exp})
	require.NoError(t, err)
	_, err = f.engine.Reserve(ctx, ledger.ReserveCommand{Key: k, Quantity: d(2), OrderID: "ORD-2"})
	require.NoError(t, err)

	sweeper := ledger.NewSweeper(f.engine, f.store.Reservations(), zerolog.Nop(), time.Minute, 10)

	n, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "todavía no vence")

	f.clock.Advance(2 * time.Minute)
	n, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	r, err := f.store.Reservations().Get(ctx, expiring.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationExpired, r.Status)
	assert.True(t, r.Quantity.IsZero())

	it := f.item(t, k)
	assert.True(t, it.Held.Equal(d(2)))
	assert.True(t, it.OnHand.Equal(d(10)))

	list := f.movements(t, k)
	last := list[len(list)-1]
	assert.Equal(t, entity.MovementRelease, last.Type)
	assert.Equal(t, true, last.Metadata["expired"])
	f.requireReplay(t, k)

	n, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEngine_ExpireAntesDeTiempo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := key("SKU-1", "")
	f.receive(t, k, 10)
	exp := f.clock.Now().Add(time.Hour)
	res, err := f.engine.Reserve(ctx, ledger.ReserveCommand{Key: k, Quantity: d(1), OrderID: "ORD-1", ExpiresAt: &exp})
	require.NoError(t, err)

	_, err = f.engine.Expire(ctx, res.Reservation.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// Una reserva confirmada no se vence aunque su expires_at haya pasado.
func TestSweeper_NoTocaReservasCerradas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := key("SKU-1", "")
	f.receive(t, k, 10)
	exp := f.clock.Now().Add(time.Minute)
	res, err := f.engine.Reserve(ctx, ledger.ReserveCommand{Key: k, Quantity: d(2), OrderID: "ORD-1", ExpiresAt: &exp})
	require.NoError(t, err)
	_, err = f.engine.Commit(ctx, ledger.SettleCommand{ReservationID: res.Reservation.ID})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.engine.Expire(ctx, res.Reservation.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	n, err := ledger.NewSweeper(f.engine, f.store.Reservations(), zerolog.Nop(), 0, 0).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeper_StartTerminaConElContexto(t *testing.T) {
	f := newFixture(t)
	sweeper := ledger.NewSweeper(f.engine, f.store.Reservations(), zerolog.Nop(), 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("el barrido no se detuvo")
	}
}
