package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockResponse estado actual de un ítem.
type StockResponse struct {
	SKU             string           `json:"sku"`
	Location        string           `json:"location"`
	OnHand          decimal.Decimal  `json:"on_hand"`
	Held            decimal.Decimal  `json:"held"`
	Available       decimal.Decimal  `json:"available"`
	InStock         bool             `json:"in_stock"`
	LowStock        bool             `json:"low_stock"`
	OutOfStock      bool             `json:"out_of_stock"`
	ReorderPoint    *decimal.Decimal `json:"reorder_point,omitempty"`
	ReorderQuantity decimal.Decimal  `json:"reorder_quantity"`
	Backorderable   bool             `json:"backorderable"`
	Version         int64            `json:"version"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// MovementResponse entrada del ledger.
type MovementResponse struct {
	ID             string          `json:"id"`
	Seq            int64           `json:"seq"`
	SKU            string          `json:"sku"`
	Location       string          `json:"location"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	HeldBefore     decimal.Decimal `json:"held_before"`
	HeldAfter      decimal.Decimal `json:"held_after"`
	Reason         string          `json:"reason,omitempty"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// StockMutationResponse resultado de una mutación: stock actualizado y movimiento(s) generados.
type StockMutationResponse struct {
	Stock     StockResponse      `json:"stock"`
	Movement  *MovementResponse  `json:"movement,omitempty"`
	Movements []MovementResponse `json:"movements,omitempty"`
}

// AdjustStockRequest body para POST /api/stock/adjust.
type AdjustStockRequest struct {
	SKU             string          `json:"sku" validate:"required,max=64"`
	Location        string          `json:"location" validate:"omitempty,max=64"`
	Delta           decimal.Decimal `json:"delta"`
	Type            string          `json:"type" validate:"omitempty,oneof=adjustment return damage loss found"`
	Reason          string          `json:"reason" validate:"required,max=255"`
	ReferenceType   string          `json:"reference_type" validate:"omitempty,oneof=order manual_adjustment transfer purchase_order count"`
	ReferenceID     string          `json:"reference_id" validate:"omitempty,max=128"`
	Metadata        map[string]any  `json:"metadata"`
	ExpectedVersion *int64          `json:"expected_version"`
	CreateIfMissing bool            `json:"create_if_missing"`
}

// ReceiveStockRequest body para POST /api/stock/receive.
type ReceiveStockRequest struct {
	SKU             string          `json:"sku" validate:"required,max=64"`
	Location        string          `json:"location" validate:"omitempty,max=64"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reason          string          `json:"reason" validate:"max=255"`
	ReferenceType   string          `json:"reference_type" validate:"omitempty,oneof=order manual_adjustment transfer purchase_order count"`
	ReferenceID     string          `json:"reference_id" validate:"omitempty,max=128"`
	Metadata        map[string]any  `json:"metadata"`
	ExpectedVersion *int64          `json:"expected_version"`
}

// CountStockRequest body para POST /api/stock/count (conteo físico).
type CountStockRequest struct {
	SKU             string          `json:"sku" validate:"required,max=64"`
	Location        string          `json:"location" validate:"omitempty,max=64"`
	Counted         decimal.Decimal `json:"counted"`
	Reason          string          `json:"reason" validate:"max=255"`
	ReferenceID     string          `json:"reference_id" validate:"omitempty,max=128"`
	Metadata        map[string]any  `json:"metadata"`
	ExpectedVersion *int64          `json:"expected_version"`
}

// TransferStockRequest body para POST /api/stock/transfer.
type TransferStockRequest struct {
	SKU          string          `json:"sku" validate:"required,max=64"`
	FromLocation string          `json:"from_location" validate:"required,max=64"`
	ToLocation   string          `json:"to_location" validate:"required,max=64,nefield=FromLocation"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason" validate:"max=255"`
	ReferenceID  string          `json:"reference_id" validate:"omitempty,max=128"`
	Metadata     map[string]any  `json:"metadata"`
}

// CreateItemRequest body para POST /api/items.
type CreateItemRequest struct {
	SKU             string           `json:"sku" validate:"required,max=64"`
	Location        string           `json:"location" validate:"omitempty,max=64"`
	ReorderPoint    *decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal  `json:"reorder_quantity"`
	Backorderable   bool             `json:"backorderable"`
	InitialQuantity decimal.Decimal  `json:"initial_quantity"`
}

// UpdateSettingsRequest body para PUT /api/items/:sku. Campos ausentes no cambian.
type UpdateSettingsRequest struct {
	Location          string           `json:"location" validate:"omitempty,max=64"`
	ReorderPoint      *decimal.Decimal `json:"reorder_point"`
	ClearReorderPoint bool             `json:"clear_reorder_point"`
	ReorderQuantity   *decimal.Decimal `json:"reorder_quantity"`
	Backorderable     *bool            `json:"backorderable"`
	ExpectedVersion   *int64           `json:"expected_version"`
}

// MovementPageResponse página del ledger; NextCursor vacío indica fin.
type MovementPageResponse struct {
	Items      []MovementResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
	Limit      int                `json:"limit"`
}

// LowStockItemResponse ítem bajo su punto de reorden con la cantidad sugerida de pedido.
type LowStockItemResponse struct {
	SKU               string          `json:"sku"`
	Location          string          `json:"location"`
	Available         decimal.Decimal `json:"available"`
	ReorderPoint      decimal.Decimal `json:"reorder_point"`
	ReorderQuantity   decimal.Decimal `json:"reorder_quantity"`
	Deficit           decimal.Decimal `json:"deficit"`             // reorder_point - available
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"` // max(reorder_quantity, deficit)
	Priority          int             `json:"priority"`            // 1 = más urgente
}

// HealthResponse estado del servicio; nunca se responde con error.
type HealthResponse struct {
	Healthy bool              `json:"healthy"`
	Detail  string            `json:"detail"`
	Checks  map[string]string `json:"checks,omitempty"`
}
