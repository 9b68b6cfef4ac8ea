package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InventoryItemReader consultas de ítems fuera de transacción.
type InventoryItemReader interface {
	Get(ctx context.Context, key entity.ItemKey) (*entity.InventoryItem, error)
	// ListLowStock devuelve ítems con disponible <= punto de reorden, mayor déficit primero.
	// location vacío considera todas las ubicaciones.
	ListLowStock(ctx context.Context, location string, limit int) ([]*entity.InventoryItem, error)
}

// InventoryItemRepository puerto de persistencia de ítems (usado dentro de transacciones).
type InventoryItemRepository interface {
	InventoryItemReader
	// GetForUpdate obtiene el ítem y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, key entity.ItemKey) (*entity.InventoryItem, error)
	// CreateIfAbsent inserta el ítem si (sku, location) no existe; created=false si ya existía.
	CreateIfAbsent(ctx context.Context, item *entity.InventoryItem) (bool, error)
	// Save persiste el ítem si la versión almacenada es expectedVersion; deja item.Version = expectedVersion+1.
	Save(ctx context.Context, item *entity.InventoryItem, expectedVersion int64) error
}
