package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// evaluateReorder agrega una alerta si el disponible cambió y el ítem quedó bajo su punto de reorden
// con cantidad de reorden configurada.
func (e *Engine) evaluateReorder(st *txState, before, after *entity.InventoryItem, now time.Time) {
	if before.Available().Equal(after.Available()) {
		return
	}
	if !after.LowStock() || !after.ReorderQuantity.IsPositive() {
		return
	}
	st.lowStock = append(st.lowStock, entity.LowStockEvent{
		SKU:             after.SKU,
		Location:        after.Location,
		Available:       after.Available(),
		ReorderPoint:    *after.ReorderPoint,
		ReorderQuantity: after.ReorderQuantity,
		OccurredAt:      now,
	})
}

// signal entrega la alerta al notificador. Un pánico del notificador no afecta la operación ya confirmada.
func (e *Engine) signal(ctx context.Context, evt entity.LowStockEvent) {
	if e.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Item(e.log.Error(), evt.SKU, evt.Location).Interface("panic", r).
				Msg("notificador de stock bajo falló")
		}
	}()
	e.notifier.NotifyLowStock(ctx, evt)
}
