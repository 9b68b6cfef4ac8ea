package entity

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLocation ubicación usada cuando el llamador no indica una.
const DefaultLocation = "default"

// ItemKey identifica un ítem de inventario: SKU en una ubicación.
type ItemKey struct {
	SKU      string
	Location string
}

// NewItemKey normaliza espacios y aplica la ubicación por defecto.
func NewItemKey(sku, location string) ItemKey {
	location = strings.TrimSpace(location)
	if location == "" {
		location = DefaultLocation
	}
	return ItemKey{SKU: strings.TrimSpace(sku), Location: location}
}

func (k ItemKey) String() string { return k.SKU + "@" + k.Location }

// Encode forma inyectiva de la clave para nombres externos (caché, bloqueos): cada parte va escapada,
// así un "@" dentro del SKU o la ubicación no se confunde con el separador.
func (k ItemKey) Encode() string { return url.QueryEscape(k.SKU) + "@" + url.QueryEscape(k.Location) }

// Valid indica si la clave tiene SKU y ubicación.
func (k ItemKey) Valid() bool { return k.SKU != "" && k.Location != "" }

// Less define el orden global de bloqueo (SKU, luego ubicación).
func (k ItemKey) Less(o ItemKey) bool {
	if k.SKU != o.SKU {
		return k.SKU < o.SKU
	}
	return k.Location < o.Location
}

// InventoryItem agregado raíz: existencias de un SKU en una ubicación.
// Solo el motor del ledger lo modifica; cada mutación incrementa Version.
type InventoryItem struct {
	ID              string
	SKU             string
	Location        string
	OnHand          decimal.Decimal
	Held            decimal.Decimal
	ReorderPoint    *decimal.Decimal // nil = sin punto de reorden
	ReorderQuantity decimal.Decimal
	Backorderable   bool
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewInventoryItem crea un ítem vacío (on_hand=0, held=0).
func NewInventoryItem(id string, key ItemKey, now time.Time) *InventoryItem {
	return &InventoryItem{
		ID:        id,
		SKU:       key.SKU,
		Location:  key.Location,
		OnHand:    decimal.Zero,
		Held:      decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (i *InventoryItem) Key() ItemKey { return ItemKey{SKU: i.SKU, Location: i.Location} }

// Available = on_hand - held.
func (i *InventoryItem) Available() decimal.Decimal { return i.OnHand.Sub(i.Held) }

func (i *InventoryItem) InStock() bool { return i.Available().IsPositive() }

func (i *InventoryItem) OutOfStock() bool { return !i.Available().IsPositive() }

// LowStock es verdadero si hay punto de reorden y el disponible no lo supera.
func (i *InventoryItem) LowStock() bool {
	if i.ReorderPoint == nil {
		return false
	}
	return i.Available().LessThanOrEqual(*i.ReorderPoint)
}

// AvailableToPromise devuelve el disponible y si es ilimitado (backorderable).
func (i *InventoryItem) AvailableToPromise() (decimal.Decimal, bool) {
	return i.Available(), i.Backorderable
}

// CanReserve: backorderable o disponible >= qty.
func (i *InventoryItem) CanReserve(qty decimal.Decimal) bool {
	return i.Backorderable || i.Available().GreaterThanOrEqual(qty)
}

// CanFulfill aplica la misma regla que CanReserve al origen de un traslado.
func (i *InventoryItem) CanFulfill(qty decimal.Decimal) bool {
	return i.CanReserve(qty)
}

// CheckInvariants valida I1 (held >= 0) e I2 (on_hand >= held salvo backorderable).
func (i *InventoryItem) CheckInvariants() bool {
	if i.Held.IsNegative() {
		return false
	}
	if !i.Backorderable && i.OnHand.LessThan(i.Held) {
		return false
	}
	return true
}

// Clone copia profunda (ReorderPoint incluido) para staging dentro de transacciones.
func (i *InventoryItem) Clone() *InventoryItem {
	if i == nil {
		return nil
	}
	c := *i
	if i.ReorderPoint != nil {
		rp := *i.ReorderPoint
		c.ReorderPoint = &rp
	}
	return &c
}
