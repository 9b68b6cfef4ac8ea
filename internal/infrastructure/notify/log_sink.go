package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// LogSink registra las alertas; destino por defecto cuando no hay Kafka configurado.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink { return &LogSink{log: log} }

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, evt entity.LowStockEvent) error {
	logger.Item(s.log.Warn(), evt.SKU, evt.Location).
		Str("available", evt.Available.String()).
		Str("reorder_point", evt.ReorderPoint.String()).
		Str("reorder_quantity", evt.ReorderQuantity.String()).
		Msg("stock bajo punto de reorden")
	return nil
}
