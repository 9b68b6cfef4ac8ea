//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
)

// LedgerSuite ejercita el motor contra un PostgreSQL real levantado con testcontainers.
type LedgerSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	engine    *ledger.Engine
	items     *postgres.InventoryItemRepo
	movements *postgres.MovementRepo
	reserves  *postgres.ReservationRepo
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.container, err = tcpostgres.Run(
		s.ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)

	dsn, err := s.container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(postgres.Migrate(dsn))
	// Segunda pasada sin cambios.
	s.Require().NoError(postgres.Migrate(dsn))

	s.pool, err = postgres.NewPoolFromDSN(s.ctx, dsn, 20)
	s.Require().NoError(err)

	s.engine = ledger.NewEngine(postgres.NewTxRunner(s.pool, 500*time.Millisecond), nil, nil, zerolog.Nop())
	s.items = postgres.NewInventoryItemRepository(s.pool)
	s.movements = postgres.NewMovementRepository(s.pool)
	s.reserves = postgres.NewReservationRepository(s.pool)
}

func (s *LedgerSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *LedgerSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE reservations, stock_movements, inventory_items CASCADE")
	s.Require().NoError(err)
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (s *LedgerSuite) receive(k entity.ItemKey, qty int64) {
	_, err := s.engine.Receive(s.ctx, ledger.ReceiveCommand{Key: k, Quantity: d(qty), Reason: "recepción"})
	s.Require().NoError(err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Casos
// ──────────────────────────────────────────────────────────────────────────────

func (s *LedgerSuite) TestCicloDeReservaPersistido() {
	k := entity.NewItemKey("SKU-1", "BOG")
	s.receive(k, 10)

	res, err := s.engine.Reserve(s.ctx, ledger.ReserveCommand{Key: k, Quantity: d(4), OrderID: "ORD-1"})
	s.Require().NoError(err)
	id := res.Reservation.ID

	_, err = s.engine.Commit(s.ctx, ledger.SettleCommand{ReservationID: id, Quantity: d(1)})
	s.Require().NoError(err)
	_, err = s.engine.Release(s.ctx, ledger.SettleCommand{ReservationID: id})
	s.Require().NoError(err)

	item, err := s.items.Get(s.ctx, k)
	s.Require().NoError(err)
	s.True(item.OnHand.Equal(d(9)))
	s.True(item.Held.IsZero())
	s.True(item.CheckInvariants())

	r, err := s.reserves.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(entity.ReservationReleased, r.Status)
	s.NotNil(r.ClosedAt)
	s.True(r.CommittedQuantity.Equal(d(1)))
	s.True(r.ReleasedQuantity.Equal(d(3)))
	s.True(r.Quantity.IsZero())

	list, err := s.movements.ListByItem(s.ctx, item.ID, 0, 100)
	s.Require().NoError(err)
	s.Require().Len(list, 4)
	s.True(entity.ReplayOnHand(decimal.Zero, list).Equal(item.OnHand))
	s.True(entity.ReplayHeld(list).Equal(item.Held))
	s.Equal(entity.OrderRef("ORD-1"), list[1].Reference)

	after, err := s.movements.ListByItem(s.ctx, item.ID, list[1].Seq, 100)
	s.Require().NoError(err)
	s.Len(after, 2)
}

func (s *LedgerSuite) TestStockInsuficienteNoDejaRastro() {
	k := entity.NewItemKey("SKU-1", "BOG")
	s.receive(k, 2)

	_, err := s.engine.Reserve(s.ctx, ledger.ReserveCommand{Key: k, Quantity: d(3), OrderID: "ORD-1"})
	s.ErrorIs(err, domain.ErrInsufficientStock)

	item, err := s.items.Get(s.ctx, k)
	s.Require().NoError(err)
	s.Equal(int64(1), item.Version)
	list, err := s.movements.ListByItem(s.ctx, item.ID, 0, 10)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *LedgerSuite) TestReservasConcurrentesNoSobrevenden() {
	k := entity.NewItemKey("SKU-1", "BOG")
	s.receive(k, 10)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.engine.Reserve(s.ctx, ledger.ReserveCommand{Key: k, Quantity: d(1), OrderID: "ORD-C"})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	item, err := s.items.Get(s.ctx, k)
	s.Require().NoError(err)
	s.LessOrEqual(ok, 10)
	s.True(item.Held.Equal(d(int64(ok))))
	s.False(item.Available().IsNegative())

	byOrder, err := s.reserves.ListByOrder(s.ctx, "ORD-C")
	s.Require().NoError(err)
	s.Len(byOrder, ok)
}

func (s *LedgerSuite) TestTrasladoAtomico() {
	from := entity.NewItemKey("SKU-1", "BOG")
	to := entity.NewItemKey("SKU-1", "MED")
	s.receive(from, 5)

	_, err := s.engine.Transfer(s.ctx, ledger.TransferCommand{From: from, To: to, Quantity: d(3)})
	s.Require().NoError(err)
	_, err = s.engine.Transfer(s.ctx, ledger.TransferCommand{From: from, To: to, Quantity: d(3)})
	s.ErrorIs(err, domain.ErrInsufficientStock)

	src, err := s.items.Get(s.ctx, from)
	s.Require().NoError(err)
	dst, err := s.items.Get(s.ctx, to)
	s.Require().NoError(err)
	s.True(src.OnHand.Equal(d(2)))
	s.True(dst.OnHand.Equal(d(3)))
}

func (s *LedgerSuite) TestVersionEsperada() {
	k := entity.NewItemKey("SKU-1", "BOG")
	s.receive(k, 5)

	stale := int64(0)
	_, err := s.engine.Adjust(s.ctx, ledger.AdjustCommand{Key: k, Delta: d(1), Reason: "x", ExpectedVersion: &stale})
	s.ErrorIs(err, domain.ErrVersionConflict)

	current := int64(1)
	res, err := s.engine.Adjust(s.ctx, ledger.AdjustCommand{Key: k, Delta: d(1), Reason: "x", ExpectedVersion: &current})
	s.Require().NoError(err)
	s.Equal(int64(2), res.Item.Version)
}

func (s *LedgerSuite) TestBarridoDeVencidas() {
	k := entity.NewItemKey("SKU-1", "BOG")
	s.receive(k, 5)

	past := time.Now().Add(-time.Minute)
	res, err := s.engine.Reserve(s.ctx, ledger.ReserveCommand{Key: k, Quantity: d(2), OrderID: "ORD-1", ExpiresAt: &past})
	s.Require().NoError(err)

	sweeper := ledger.NewSweeper(s.engine, s.reserves, zerolog.Nop(), time.Minute, 10)
	n, err := sweeper.SweepOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	r, err := s.reserves.Get(s.ctx, res.Reservation.ID)
	s.Require().NoError(err)
	s.Equal(entity.ReservationExpired, r.Status)

	item, err := s.items.Get(s.ctx, k)
	s.Require().NoError(err)
	s.True(item.Held.IsZero())
}

func (s *LedgerSuite) TestListLowStockYHealth() {
	k := entity.NewItemKey("SKU-1", "BOG")
	rp := d(5)
	_, err := s.engine.CreateItem(s.ctx, ledger.CreateItemCommand{Key: k, ReorderPoint: &rp, ReorderQuantity: d(10), InitialQuantity: d(2)})
	s.Require().NoError(err)
	_, err = s.engine.CreateItem(s.ctx, ledger.CreateItemCommand{Key: k})
	s.ErrorIs(err, domain.ErrDuplicate)

	low, err := s.items.ListLowStock(s.ctx, "BOG", 10)
	s.Require().NoError(err)
	s.Require().Len(low, 1)
	s.Equal("SKU-1", low[0].SKU)
	s.True(low[0].ReorderPoint.Equal(rp))

	s.NoError(postgres.NewHealthChecker(s.pool).Ping(s.ctx))
}

func (s *LedgerSuite) TestNoEncontrado() {
	_, err := s.items.Get(s.ctx, entity.NewItemKey("NOPE", "BOG"))
	s.ErrorIs(err, domain.ErrNotFound)
	_, err = s.reserves.Get(s.ctx, "00000000-0000-0000-0000-000000000000")
	s.ErrorIs(err, domain.ErrNotFound)
}
