package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas sobre PostgreSQL (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, order_id, item_id, sku, location, quantity, original_quantity,
	committed_quantity, released_quantity, status, movement_id, expires_at, closed_at, created_at, updated_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var (
		r          entity.Reservation
		movementID *string
	)
	if err := row.Scan(&r.ID, &r.OrderID, &r.ItemID, &r.SKU, &r.Location, &r.Quantity, &r.OriginalQuantity,
		&r.CommittedQuantity, &r.ReleasedQuantity, &r.Status, &movementID, &r.ExpiresAt, &r.ClosedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if movementID != nil {
		r.MovementID = *movementID
	}
	return &r, nil
}

func (r *ReservationRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Reservation, error) {
	res, err := scanReservation(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// Get obtiene la reserva por ID.
func (r *ReservationRepo) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

// GetForUpdate obtiene la reserva y bloquea la fila.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
}

// ListByOrder reservas de un pedido en orden de creación.
func (r *ReservationRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE order_id = $1 ORDER BY created_at, id`, orderID)
}

// ListExpired reservas PENDING vencidas, más antiguas primero.
func (r *ReservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at <= $2
		ORDER BY expires_at
		LIMIT $3`, string(entity.ReservationPending), now, limit)
}

// Create inserta una reserva nueva.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	var movementID *string
	if res.MovementID != "" {
		movementID = &res.MovementID
	}
	query := `
		INSERT INTO reservations (id, order_id, item_id, sku, location, quantity, original_quantity,
			committed_quantity, released_quantity, status, movement_id, expires_at, closed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		res.ID, res.OrderID, res.ItemID, res.SKU, res.Location, res.Quantity, res.OriginalQuantity,
		res.CommittedQuantity, res.ReleasedQuantity, string(res.Status), movementID, res.ExpiresAt, res.ClosedAt, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// Update persiste cantidad pendiente, totales confirmado/liberado, estado y marcas de tiempo.
func (r *ReservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET quantity = $1, committed_quantity = $2, released_quantity = $3,
			status = $4, closed_at = $5, updated_at = $6
		WHERE id = $7`
	tag, err := r.q.Exec(ctx, query, res.Quantity, res.CommittedQuantity, res.ReleasedQuantity,
		string(res.Status), res.ClosedAt, res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
