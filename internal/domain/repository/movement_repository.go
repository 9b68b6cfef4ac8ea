package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementReader consultas del ledger de movimientos.
type MovementReader interface {
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// ListByItem devuelve movimientos con Seq > afterSeq en orden ascendente.
	ListByItem(ctx context.Context, itemID string, afterSeq int64, limit int) ([]*entity.Movement, error)
}

// MovementRepository ledger append-only: no existe operación de update ni delete.
type MovementRepository interface {
	MovementReader
	// Append persiste el movimiento y asigna m.Seq.
	Append(ctx context.Context, m *entity.Movement) error
}
