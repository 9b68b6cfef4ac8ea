package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

// InventoryItemRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

const itemColumns = `id, sku, location, on_hand, held, reorder_point, reorder_quantity,
	backorderable, version, created_at, updated_at`

func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var (
		it entity.InventoryItem
		rp decimal.NullDecimal
	)
	if err := row.Scan(&it.ID, &it.SKU, &it.Location, &it.OnHand, &it.Held, &rp, &it.ReorderQuantity,
		&it.Backorderable, &it.Version, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	if rp.Valid {
		it.ReorderPoint = &rp.Decimal
	}
	return &it, nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// Get obtiene el ítem por SKU y ubicación.
func (r *InventoryItemRepo) Get(ctx context.Context, key entity.ItemKey) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE sku = $1 AND location = $2`
	it, err := scanItem(r.q.QueryRow(ctx, query, key.SKU, key.Location))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// GetForUpdate obtiene el ítem y bloquea la fila (SELECT FOR UPDATE).
func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, key entity.ItemKey) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE sku = $1 AND location = $2 FOR UPDATE`
	it, err := scanItem(r.q.QueryRow(ctx, query, key.SKU, key.Location))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get item for update: %w", err)
	}
	return it, nil
}

// CreateIfAbsent inserta el ítem; si (sku, location) ya existe no hace nada.
func (r *InventoryItemRepo) CreateIfAbsent(ctx context.Context, item *entity.InventoryItem) (bool, error) {
	query := `
		INSERT INTO inventory_items (id, sku, location, on_hand, held, reorder_point, reorder_quantity,
			backorderable, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (sku, location) DO NOTHING`
	tag, err := r.q.Exec(ctx, query,
		item.ID, item.SKU, item.Location, item.OnHand, item.Held, nullable(item.ReorderPoint),
		item.ReorderQuantity, item.Backorderable, item.Version, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create item: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Save actualiza el ítem con control optimista de versión.
func (r *InventoryItemRepo) Save(ctx context.Context, item *entity.InventoryItem, expectedVersion int64) error {
	query := `
		UPDATE inventory_items
		SET on_hand = $1, held = $2, reorder_point = $3, reorder_quantity = $4,
			backorderable = $5, version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8`
	tag, err := r.q.Exec(ctx, query,
		item.OnHand, item.Held, nullable(item.ReorderPoint), item.ReorderQuantity,
		item.Backorderable, item.UpdatedAt, item.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	item.Version = expectedVersion + 1
	return nil
}

// ListLowStock ítems con disponible <= punto de reorden, mayor déficit primero.
func (r *InventoryItemRepo) ListLowStock(ctx context.Context, location string, limit int) ([]*entity.InventoryItem, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + itemColumns + ` FROM inventory_items
		WHERE reorder_point IS NOT NULL
		  AND on_hand - held <= reorder_point
		  AND ($1 = '' OR location = $1)
		ORDER BY reorder_point - (on_hand - held) DESC, sku, location
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, location, limit)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}
