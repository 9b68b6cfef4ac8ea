package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Store almacén en memoria con la misma semántica transaccional que el adaptador PostgreSQL:
// bloqueo por fila con timeout, staging por transacción y commit atómico.
type Store struct {
	mu           sync.RWMutex
	items        map[entity.ItemKey]*entity.InventoryItem
	movements    map[string][]*entity.Movement // por item_id, orden de Seq
	movementByID map[string]*entity.Movement
	reservations map[string]*entity.Reservation
	seq          int64

	locksMu     sync.Mutex
	locks       map[string]chan struct{}
	lockTimeout time.Duration
}

// NewStore crea un almacén vacío. lockTimeout <= 0 toma 5s.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Store{
		items:        make(map[entity.ItemKey]*entity.InventoryItem),
		movements:    make(map[string][]*entity.Movement),
		movementByID: make(map[string]*entity.Movement),
		reservations: make(map[string]*entity.Reservation),
		locks:        make(map[string]chan struct{}),
		lockTimeout:  lockTimeout,
	}
}

// Ping siempre responde; el almacén vive en el proceso.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Name identifica el backend en el health check.
func (s *Store) Name() string { return "memory" }

func (s *Store) lockChan(name string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[name]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[name] = ch
	}
	return ch
}

// acquire toma el lock exclusivo de name o falla con ErrLockTimeout.
func (s *Store) acquire(ctx context.Context, name string) error {
	ch := s.lockChan(name)
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release(name string) {
	<-s.lockChan(name)
}

func (s *Store) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// ── lecturas confirmadas ──────────────────────────────────────────────────────

func (s *Store) getItem(key entity.ItemKey) (*entity.InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[key]
	if !ok {
		return nil, false
	}
	return it.Clone(), true
}

func (s *Store) getReservation(id string) (*entity.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

func (s *Store) listLowStock(location string, limit int) []*entity.InventoryItem {
	s.mu.RLock()
	var out []*entity.InventoryItem
	for _, it := range s.items {
		if location != "" && it.Location != location {
			continue
		}
		if it.LowStock() {
			out = append(out, it.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		di := out[i].ReorderPoint.Sub(out[i].Available())
		dj := out[j].ReorderPoint.Sub(out[j].Available())
		if !di.Equal(dj) {
			return di.GreaterThan(dj)
		}
		return out[i].Key().Less(out[j].Key())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) listMovements(itemID string, afterSeq int64, limit int) []*entity.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.movements[itemID]
	start := sort.Search(len(all), func(i int) bool { return all[i].Seq > afterSeq })
	var out []*entity.Movement
	for _, m := range all[start:] {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.Clone())
	}
	return out
}

func (s *Store) listByOrder(orderID string) []*entity.Reservation {
	s.mu.RLock()
	var out []*entity.Reservation
	for _, r := range s.reservations {
		if r.OrderID == orderID {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) listExpired(now time.Time, limit int) []*entity.Reservation {
	s.mu.RLock()
	var out []*entity.Reservation
	for _, r := range s.reservations {
		if r.Status == entity.ReservationPending && r.ExpiredAt(now) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ── vistas de solo lectura ────────────────────────────────────────────────────

// Items vista de lectura de ítems.
func (s *Store) Items() *ItemReader { return &ItemReader{s: s} }

// Movements vista de lectura del ledger.
func (s *Store) Movements() *MovementReader { return &MovementReader{s: s} }

// Reservations vista de lectura de reservas.
func (s *Store) Reservations() *ReservationReader { return &ReservationReader{s: s} }

// ItemReader implementa repository.InventoryItemReader.
type ItemReader struct{ s *Store }

func (r *ItemReader) Get(_ context.Context, key entity.ItemKey) (*entity.InventoryItem, error) {
	it, ok := r.s.getItem(key)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return it, nil
}

func (r *ItemReader) ListLowStock(_ context.Context, location string, limit int) ([]*entity.InventoryItem, error) {
	return r.s.listLowStock(location, limit), nil
}

// MovementReader implementa repository.MovementReader.
type MovementReader struct{ s *Store }

func (r *MovementReader) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.movementByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.Clone(), nil
}

func (r *MovementReader) ListByItem(_ context.Context, itemID string, afterSeq int64, limit int) ([]*entity.Movement, error) {
	return r.s.listMovements(itemID, afterSeq, limit), nil
}

// ReservationReader implementa repository.ReservationReader.
type ReservationReader struct{ s *Store }

func (r *ReservationReader) Get(_ context.Context, id string) (*entity.Reservation, error) {
	res, ok := r.s.getReservation(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

func (r *ReservationReader) ListByOrder(_ context.Context, orderID string) ([]*entity.Reservation, error) {
	return r.s.listByOrder(orderID), nil
}

func (r *ReservationReader) ListExpired(_ context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	return r.s.listExpired(now, limit), nil
}
