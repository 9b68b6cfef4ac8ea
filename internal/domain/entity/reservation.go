package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus estado de una reserva.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationReleased  ReservationStatus = "RELEASED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// Terminal indica si el estado ya no admite transiciones.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationConfirmed || s == ReservationReleased || s == ReservationExpired
}

// Reservation retención de stock para un pedido. Mientras está PENDING, Quantity forma parte de held.
// Siempre se cumple Quantity + CommittedQuantity + ReleasedQuantity = OriginalQuantity.
type Reservation struct {
	ID                string
	OrderID           string
	ItemID            string
	SKU               string
	Location          string
	Quantity          decimal.Decimal // pendiente (decrece con liberaciones/confirmaciones parciales)
	OriginalQuantity  decimal.Decimal
	CommittedQuantity decimal.Decimal
	ReleasedQuantity  decimal.Decimal // incluye lo vencido
	Status            ReservationStatus
	MovementID        string // movimiento "reservation" que la originó
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpiresAt         *time.Time
	ClosedAt          *time.Time
}

// NewReservation crea una reserva PENDING.
func NewReservation(id, orderID string, item *InventoryItem, qty decimal.Decimal, expiresAt *time.Time, now time.Time) *Reservation {
	return &Reservation{
		ID:                id,
		OrderID:           orderID,
		ItemID:            item.ID,
		SKU:               item.SKU,
		Location:          item.Location,
		Quantity:          qty,
		OriginalQuantity:  qty,
		CommittedQuantity: decimal.Zero,
		ReleasedQuantity:  decimal.Zero,
		Status:            ReservationPending,
		CreatedAt:         now,
		UpdatedAt:         now,
		ExpiresAt:         expiresAt,
	}
}

func (r *Reservation) Key() ItemKey { return ItemKey{SKU: r.SKU, Location: r.Location} }

// ExpiredAt indica si la reserva venció en el instante dado.
func (r *Reservation) ExpiredAt(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// Reduce descuenta qty de la reserva y lo acumula en el total confirmado (destino CONFIRMED) o
// liberado (RELEASED o EXPIRED). Si queda en cero pasa al estado terminal indicado: el estado
// final lo fija la operación que cierra la reserva, el reparto queda en los totales.
// Devuelve false si la reserva no está PENDING o el estado destino no es terminal.
func (r *Reservation) Reduce(qty decimal.Decimal, terminal ReservationStatus, now time.Time) bool {
	if r.Status != ReservationPending || !terminal.Terminal() {
		return false
	}
	r.Quantity = r.Quantity.Sub(qty)
	if terminal == ReservationConfirmed {
		r.CommittedQuantity = r.CommittedQuantity.Add(qty)
	} else {
		r.ReleasedQuantity = r.ReleasedQuantity.Add(qty)
	}
	r.UpdatedAt = now
	if r.Quantity.IsZero() {
		r.Status = terminal
		r.ClosedAt = &now
	}
	return true
}

// Clone copia la reserva incluyendo punteros de tiempo.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	c := *r
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		c.ExpiresAt = &t
	}
	if r.ClosedAt != nil {
		t := *r.ClosedAt
		c.ClosedAt = &t
	}
	return &c
}
