package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks sobre el Store con aislamiento por lock de fila.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run abre una transacción, ejecuta fn y aplica los cambios solo si fn no devuelve error.
// Los locks tomados se liberan al terminar en ambos casos.
func (r *TxRunner) Run(ctx context.Context, fn func(
	items repository.InventoryItemRepository,
	movements repository.MovementRepository,
	reservations repository.ReservationRepository,
) error) error {
	tx := &tx{
		store:        r.store,
		held:         make(map[string]bool),
		items:        make(map[entity.ItemKey]*entity.InventoryItem),
		reservations: make(map[string]*entity.Reservation),
	}
	defer tx.releaseAll()

	if err := fn(&txItems{tx}, &txMovements{tx}, &txReservations{tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// tx estado de una transacción: locks tomados y escrituras pendientes.
type tx struct {
	store        *Store
	held         map[string]bool
	items        map[entity.ItemKey]*entity.InventoryItem
	reservations map[string]*entity.Reservation
	created      []string // ids de reservas nuevas, en orden
	movements    []*entity.Movement
}

func itemLock(key entity.ItemKey) string { return "item:" + key.Encode() }
func reservationLock(id string) string   { return "reservation:" + id }

func (t *tx) lock(ctx context.Context, name string) error {
	if t.held[name] {
		return nil
	}
	if err := t.store.acquire(ctx, name); err != nil {
		return err
	}
	t.held[name] = true
	return nil
}

func (t *tx) releaseAll() {
	for name := range t.held {
		t.store.release(name)
	}
}

func (t *tx) item(key entity.ItemKey) (*entity.InventoryItem, bool) {
	if it, ok := t.items[key]; ok {
		return it.Clone(), true
	}
	return t.store.getItem(key)
}

func (t *tx) reservation(id string) (*entity.Reservation, bool) {
	if r, ok := t.reservations[id]; ok {
		return r.Clone(), true
	}
	return t.store.getReservation(id)
}

func (t *tx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, it := range t.items {
		s.items[key] = it
	}
	for id, r := range t.reservations {
		s.reservations[id] = r
	}
	for _, m := range t.movements {
		list := append(s.movements[m.ItemID], m)
		// Seq se asigna fuera del lock global; transacciones concurrentes pueden confirmar desordenadas.
		sort.SliceStable(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })
		s.movements[m.ItemID] = list
		s.movementByID[m.ID] = m
	}
}

// ── repositorios atados a la transacción ─────────────────────────────────────

type txItems struct{ t *tx }

func (r *txItems) Get(_ context.Context, key entity.ItemKey) (*entity.InventoryItem, error) {
	it, ok := r.t.item(key)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return it, nil
}

func (r *txItems) ListLowStock(ctx context.Context, location string, limit int) ([]*entity.InventoryItem, error) {
	return r.t.store.Items().ListLowStock(ctx, location, limit)
}

func (r *txItems) GetForUpdate(ctx context.Context, key entity.ItemKey) (*entity.InventoryItem, error) {
	if err := r.t.lock(ctx, itemLock(key)); err != nil {
		return nil, err
	}
	return r.Get(ctx, key)
}

func (r *txItems) CreateIfAbsent(ctx context.Context, item *entity.InventoryItem) (bool, error) {
	key := item.Key()
	if err := r.t.lock(ctx, itemLock(key)); err != nil {
		return false, err
	}
	if _, ok := r.t.item(key); ok {
		return false, nil
	}
	r.t.items[key] = item.Clone()
	return true, nil
}

func (r *txItems) Save(ctx context.Context, item *entity.InventoryItem, expectedVersion int64) error {
	key := item.Key()
	if err := r.t.lock(ctx, itemLock(key)); err != nil {
		return err
	}
	current, ok := r.t.item(key)
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	item.Version = expectedVersion + 1
	r.t.items[key] = item.Clone()
	return nil
}

type txMovements struct{ t *tx }

func (r *txMovements) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	for _, m := range r.t.movements {
		if m.ID == id {
			return m.Clone(), nil
		}
	}
	return r.t.store.Movements().GetByID(ctx, id)
}

func (r *txMovements) ListByItem(_ context.Context, itemID string, afterSeq int64, limit int) ([]*entity.Movement, error) {
	out := r.t.store.listMovements(itemID, afterSeq, 0)
	for _, m := range r.t.movements {
		if m.ItemID == itemID && m.Seq > afterSeq {
			out = append(out, m.Clone())
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *txMovements) Append(_ context.Context, m *entity.Movement) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.Seq = r.t.store.nextSeq()
	r.t.movements = append(r.t.movements, m.Clone())
	return nil
}

type txReservations struct{ t *tx }

func (r *txReservations) Get(_ context.Context, id string) (*entity.Reservation, error) {
	res, ok := r.t.reservation(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

func (r *txReservations) ListByOrder(ctx context.Context, orderID string) ([]*entity.Reservation, error) {
	out, _ := r.t.store.Reservations().ListByOrder(ctx, orderID)
	for _, id := range r.t.created {
		if res := r.t.reservations[id]; res.OrderID == orderID {
			out = append(out, res.Clone())
		}
	}
	return out, nil
}

func (r *txReservations) ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	return r.t.store.Reservations().ListExpired(ctx, now, limit)
}

func (r *txReservations) GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	if err := r.t.lock(ctx, reservationLock(id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *txReservations) Create(_ context.Context, res *entity.Reservation) error {
	if _, ok := r.t.reservation(res.ID); ok {
		return domain.ErrDuplicate
	}
	r.t.reservations[res.ID] = res.Clone()
	r.t.created = append(r.t.created, res.ID)
	return nil
}

func (r *txReservations) Update(ctx context.Context, res *entity.Reservation) error {
	if err := r.t.lock(ctx, reservationLock(res.ID)); err != nil {
		return err
	}
	if _, ok := r.t.reservation(res.ID); !ok {
		return domain.ErrNotFound
	}
	r.t.reservations[res.ID] = res.Clone()
	return nil
}
