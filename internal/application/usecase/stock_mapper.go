package usecase

import (
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func toStockResponse(it *entity.InventoryItem) dto.StockResponse {
	return dto.StockResponse{
		SKU:             it.SKU,
		Location:        it.Location,
		OnHand:          it.OnHand,
		Held:            it.Held,
		Available:       it.Available(),
		InStock:         it.InStock(),
		LowStock:        it.LowStock(),
		OutOfStock:      it.OutOfStock(),
		ReorderPoint:    it.ReorderPoint,
		ReorderQuantity: it.ReorderQuantity,
		Backorderable:   it.Backorderable,
		Version:         it.Version,
		UpdatedAt:       it.UpdatedAt,
	}
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		Seq:            m.Seq,
		SKU:            m.SKU,
		Location:       m.Location,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		HeldBefore:     m.HeldBefore,
		HeldAfter:      m.HeldAfter,
		Reason:         m.Reason,
		ReferenceType:  string(m.Reference.Kind),
		ReferenceID:    m.Reference.ID,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
	}
}

func toMutationResponse(res *ledger.Result) *dto.StockMutationResponse {
	out := &dto.StockMutationResponse{Stock: toStockResponse(res.Item)}
	switch len(res.Movements) {
	case 0:
	case 1:
		m := toMovementResponse(res.Movements[0])
		out.Movement = &m
	default:
		for _, m := range res.Movements {
			out.Movements = append(out.Movements, toMovementResponse(m))
		}
	}
	return out
}

func toReservationResponse(r *entity.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:                r.ID,
		OrderID:           r.OrderID,
		SKU:               r.SKU,
		Location:          r.Location,
		Quantity:          r.Quantity,
		OriginalQuantity:  r.OriginalQuantity,
		CommittedQuantity: r.CommittedQuantity,
		ReleasedQuantity:  r.ReleasedQuantity,
		Status:            string(r.Status),
		MovementID:        r.MovementID,
		ExpiresAt:         r.ExpiresAt,
		ClosedAt:          r.ClosedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func toReservationMutation(res *ledger.Result) *dto.ReservationMutationResponse {
	out := &dto.ReservationMutationResponse{Reservation: toReservationResponse(res.Reservation)}
	if m := res.Movement(); m != nil {
		mr := toMovementResponse(m)
		out.Movement = &mr
	}
	if res.Item != nil {
		sr := toStockResponse(res.Item)
		out.Stock = &sr
	}
	return out
}
