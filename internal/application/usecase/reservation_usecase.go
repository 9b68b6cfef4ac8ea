package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// maxExpirationSeconds un año; acota expires_at lejos del desborde de time.Duration.
const maxExpirationSeconds = 365 * 24 * 60 * 60

// ReserveStock reserva las líneas de un pedido según la política pedida o la configurada.
// Las líneas fallidas se informan en Failures; no son un error de la operación.
func (uc *StockUseCase) ReserveStock(ctx context.Context, in dto.ReserveStockRequest) (*dto.ReserveStockResponse, error) {
	policy, err := ledger.ParseBatchPolicy(in.Policy, uc.batchPolicy)
	if err != nil {
		return nil, err
	}
	if in.ExpirationSeconds < 0 || in.ExpirationSeconds > maxExpirationSeconds {
		return nil, domain.ErrInvalidInput
	}
	var expiresAt *time.Time
	if in.ExpirationSeconds > 0 {
		t := uc.engine.Now().Add(time.Duration(in.ExpirationSeconds) * time.Second)
		expiresAt = &t
	}
	lines := make([]ledger.ReserveLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, ledger.ReserveLine{Key: uc.key(it.SKU, it.Location), Quantity: it.Quantity})
	}
	res, err := uc.engine.ReserveMany(ctx, ledger.ReserveManyCommand{
		OrderID:   strings.TrimSpace(in.OrderID),
		Lines:     lines,
		ExpiresAt: expiresAt,
		Policy:    policy,
		Metadata:  in.Metadata,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.ReserveStockResponse{
		OrderID:       res.OrderID,
		Policy:        string(policy),
		FullyReserved: res.FullyReserved,
		Reservations:  make([]dto.ReservationResponse, 0, len(res.Reservations)),
		Failures:      make([]dto.ReservationFailure, 0, len(res.Failures)),
	}
	for _, r := range res.Reservations {
		out.Reservations = append(out.Reservations, toReservationResponse(r))
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, dto.ReservationFailure{
			SKU: f.SKU, Location: f.Location, Requested: f.Requested, Available: f.Available, Reason: f.Reason,
		})
	}
	if !out.FullyReserved {
		uc.log.Info().Str(logger.FieldOrderID, out.OrderID).Str("policy", out.Policy).Int("failures", len(out.Failures)).
			Msg("pedido reservado parcialmente")
	}
	return out, nil
}

// ReleaseReservation libera la reserva (total o parcial).
func (uc *StockUseCase) ReleaseReservation(ctx context.Context, id string, in dto.SettleReservationRequest) (*dto.ReservationMutationResponse, error) {
	res, err := uc.engine.Release(ctx, ledger.SettleCommand{
		ReservationID: strings.TrimSpace(id),
		Quantity:      in.Quantity,
		Reason:        in.Reason,
		Metadata:      in.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return toReservationMutation(res), nil
}

// ConfirmReservation confirma la reserva: descuenta on_hand y held.
func (uc *StockUseCase) ConfirmReservation(ctx context.Context, id string, in dto.SettleReservationRequest) (*dto.ReservationMutationResponse, error) {
	res, err := uc.engine.Commit(ctx, ledger.SettleCommand{
		ReservationID: strings.TrimSpace(id),
		Quantity:      in.Quantity,
		Reason:        in.Reason,
		Metadata:      in.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return toReservationMutation(res), nil
}

// GetReservation obtiene una reserva por ID.
func (uc *StockUseCase) GetReservation(ctx context.Context, id string) (*dto.ReservationResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	r, err := uc.reservations.Get(ctx, id)
	if err != nil {
		return nil, uc.readErr("get_reservation", err)
	}
	out := toReservationResponse(r)
	return &out, nil
}

// ListOrderReservations reservas de un pedido en orden de creación.
func (uc *StockUseCase) ListOrderReservations(ctx context.Context, orderID string) ([]dto.ReservationResponse, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.reservations.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, uc.readErr("list_order_reservations", err)
	}
	out := make([]dto.ReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResponse(r))
	}
	return out, nil
}
