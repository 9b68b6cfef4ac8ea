package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del ledger.
type MovementType string

const (
	MovementReceipt         MovementType = "receipt"
	MovementAdjustment      MovementType = "adjustment"
	MovementTransferIn      MovementType = "transfer_in"
	MovementTransferOut     MovementType = "transfer_out"
	MovementReservation     MovementType = "reservation"
	MovementRelease         MovementType = "release"
	MovementCommit          MovementType = "commit"
	MovementReturn          MovementType = "return"
	MovementDamage          MovementType = "damage"
	MovementLoss            MovementType = "loss"
	MovementFound           MovementType = "found"
	MovementCountAdjustment MovementType = "count_adjustment"
)

// Valid indica si el tipo pertenece al catálogo.
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceipt, MovementAdjustment, MovementTransferIn, MovementTransferOut,
		MovementReservation, MovementRelease, MovementCommit, MovementReturn,
		MovementDamage, MovementLoss, MovementFound, MovementCountAdjustment:
		return true
	}
	return false
}

// Movement registro inmutable de un cambio de cantidad.
// Quantity: positivo aumenta on_hand. reservation (-qty) y release (+qty) solo afectan held;
// commit (-qty) reduce on_hand y held.
type Movement struct {
	ID             string
	Seq            int64 // asignado por el almacén al persistir; orden del cursor
	ItemID         string
	SKU            string
	Location       string
	Type           MovementType
	Quantity       decimal.Decimal
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	HeldBefore     decimal.Decimal
	HeldAfter      decimal.Decimal
	Reason         string
	Reference      Reference
	Metadata       map[string]any
	CreatedAt      time.Time
}

// OnHandDelta efecto del movimiento sobre on_hand.
func (m *Movement) OnHandDelta() decimal.Decimal {
	switch m.Type {
	case MovementReservation, MovementRelease:
		return decimal.Zero
	}
	return m.Quantity
}

// HeldDelta efecto del movimiento sobre held.
func (m *Movement) HeldDelta() decimal.Decimal {
	switch m.Type {
	case MovementReservation:
		return m.Quantity.Neg()
	case MovementRelease, MovementCommit:
		return m.Quantity
	}
	return decimal.Zero
}

// ReplayOnHand reconstruye on_hand aplicando los deltas en orden desde el valor inicial.
func ReplayOnHand(initial decimal.Decimal, movements []*Movement) decimal.Decimal {
	total := initial
	for _, m := range movements {
		total = total.Add(m.OnHandDelta())
	}
	return total
}

// ReplayHeld reconstruye held desde cero.
func ReplayHeld(movements []*Movement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.HeldDelta())
	}
	return total
}

// Clone copia el movimiento (metadata superficial).
func (m *Movement) Clone() *Movement {
	if m == nil {
		return nil
	}
	c := *m
	if m.Metadata != nil {
		c.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
