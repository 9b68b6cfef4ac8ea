package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReservationReader consultas de reservas.
type ReservationReader interface {
	Get(ctx context.Context, id string) (*entity.Reservation, error)
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Reservation, error)
	// ListExpired devuelve reservas PENDING con expires_at <= now, más antiguas primero.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)
}

// ReservationRepository puerto de persistencia de reservas.
type ReservationRepository interface {
	ReservationReader
	GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error)
	Create(ctx context.Context, r *entity.Reservation) error
	// Update persiste cantidad pendiente, estado y marcas de tiempo.
	Update(ctx context.Context, r *entity.Reservation) error
}
