package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReserveItemRequest una línea del pedido.
type ReserveItemRequest struct {
	SKU      string          `json:"sku" validate:"required,max=64"`
	Location string          `json:"location" validate:"omitempty,max=64"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReserveStockRequest body para POST /api/reservations.
type ReserveStockRequest struct {
	OrderID           string               `json:"order_id" validate:"required,max=128"`
	Items             []ReserveItemRequest `json:"items" validate:"required,min=1,max=200,dive"`
	ExpirationSeconds int                  `json:"expiration_seconds" validate:"gte=0,lte=31536000"`
	Policy            string               `json:"policy" validate:"omitempty,oneof=best_effort all_or_nothing"`
	Metadata          map[string]any       `json:"metadata"`
}

// SettleReservationRequest body opcional para release/confirm. Quantity cero = todo lo pendiente.
type SettleReservationRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason" validate:"max=255"`
	Metadata map[string]any  `json:"metadata"`
}

// ReservationResponse reserva y su estado.
type ReservationResponse struct {
	ID                string          `json:"id"`
	OrderID           string          `json:"order_id"`
	SKU               string          `json:"sku"`
	Location          string          `json:"location"`
	Quantity          decimal.Decimal `json:"quantity"`
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	CommittedQuantity decimal.Decimal `json:"committed_quantity"`
	ReleasedQuantity  decimal.Decimal `json:"released_quantity"`
	Status            string          `json:"status"`
	MovementID        string          `json:"movement_id,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	ClosedAt          *time.Time      `json:"closed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ReservationFailure línea no reservada.
type ReservationFailure struct {
	SKU       string          `json:"sku"`
	Location  string          `json:"location"`
	Requested decimal.Decimal `json:"requested"`
	Available decimal.Decimal `json:"available"`
	Reason    string          `json:"reason"`
}

// ReserveStockResponse resultado de reservar un pedido.
type ReserveStockResponse struct {
	OrderID       string                `json:"order_id"`
	Policy        string                `json:"policy"`
	FullyReserved bool                  `json:"fully_reserved"`
	Reservations  []ReservationResponse `json:"reservations"`
	Failures      []ReservationFailure  `json:"failures"`
}

// ReservationMutationResponse resultado de liberar o confirmar una reserva.
type ReservationMutationResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Movement    *MovementResponse   `json:"movement,omitempty"`
	Stock       *StockResponse      `json:"stock,omitempty"`
}
