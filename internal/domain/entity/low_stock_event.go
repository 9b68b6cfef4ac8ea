package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockEvent intención de notificar que un ítem cayó bajo su punto de reorden.
type LowStockEvent struct {
	SKU             string          `json:"sku"`
	Location        string          `json:"location"`
	Available       decimal.Decimal `json:"available"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
	OccurredAt      time.Time       `json:"occurred_at"`
}
