package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza atomicidad ítem + movimiento.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		items repository.InventoryItemRepository,
		movements repository.MovementRepository,
		reservations repository.ReservationRepository,
	) error) error
}

// ReorderNotifier recibe intenciones de alerta de stock bajo. No debe bloquear.
type ReorderNotifier interface {
	NotifyLowStock(ctx context.Context, evt entity.LowStockEvent)
}

// StockInvalidator descarta lecturas cacheadas de los ítems modificados tras un commit.
// Recibe el estado confirmado: después de Invalidate la caché no acepta una versión anterior.
type StockInvalidator interface {
	Invalidate(ctx context.Context, items ...*entity.InventoryItem)
}
