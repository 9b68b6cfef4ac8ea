package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger de movimientos sobre PostgreSQL. Solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `seq, id, item_id, sku, location, type, quantity, quantity_before, quantity_after,
	held_before, held_after, reason, reference_type, reference_id, metadata, created_at`

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m        entity.Movement
		refType  *string
		refID    *string
		metadata []byte
	)
	if err := row.Scan(&m.Seq, &m.ID, &m.ItemID, &m.SKU, &m.Location, &m.Type, &m.Quantity,
		&m.QuantityBefore, &m.QuantityAfter, &m.HeldBefore, &m.HeldAfter, &m.Reason,
		&refType, &refID, &metadata, &m.CreatedAt); err != nil {
		return nil, err
	}
	if refType != nil {
		kind, ok := entity.ParseReferenceKind(*refType)
		if !ok {
			return nil, fmt.Errorf("tipo de referencia desconocido %q", *refType)
		}
		m.Reference.Kind = kind
	}
	if refID != nil {
		m.Reference.ID = *refID
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &m, nil
}

// Append inserta el movimiento y asigna Seq.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	var (
		refType, refID *string
		metadata       []byte
	)
	if !m.Reference.IsZero() {
		kind, id := string(m.Reference.Kind), m.Reference.ID
		refType, refID = &kind, &id
	}
	if len(m.Metadata) > 0 {
		b, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("%w: metadata no serializable: %v", domain.ErrInvalidInput, err)
		}
		metadata = b
	}
	query := `
		INSERT INTO stock_movements (id, item_id, sku, location, type, quantity, quantity_before, quantity_after,
			held_before, held_after, reason, reference_type, reference_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ItemID, m.SKU, m.Location, string(m.Type), m.Quantity, m.QuantityBefore, m.QuantityAfter,
		m.HeldBefore, m.HeldAfter, m.Reason, refType, refID, metadata, m.CreatedAt,
	).Scan(&m.Seq)
	if err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByItem página de movimientos de un ítem posteriores al cursor afterSeq.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID string, afterSeq int64, limit int) ([]*entity.Movement, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE item_id = $1 AND seq > $2
		ORDER BY seq ASC
		LIMIT $3`
	rows, err := r.q.Query(ctx, query, itemID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
