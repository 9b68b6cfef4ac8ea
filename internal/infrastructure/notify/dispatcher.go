package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ ledger.ReorderNotifier = (*Dispatcher)(nil)

// Sink destino de alertas de stock bajo (Kafka, log).
type Sink interface {
	Send(ctx context.Context, evt entity.LowStockEvent) error
	Name() string
}

// Dispatcher encola alertas y las entrega a los sinks desde workers propios.
// NotifyLowStock nunca bloquea al ledger: con la cola llena la alerta se descarta y se registra.
type Dispatcher struct {
	sinks   []Sink
	queue   chan entity.LowStockEvent
	workers int
	timeout time.Duration
	log     zerolog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewDispatcher construye el despachador. buffer <= 0 toma 256; workers <= 0 toma 1.
func NewDispatcher(log zerolog.Logger, buffer, workers int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan entity.LowStockEvent, buffer),
		workers: workers,
		timeout: 5 * time.Second,
		log:     log.With().Str(logger.FieldComponent, "reorder_dispatcher").Logger(),
	}
}

// Start lanza los workers. Terminan al llamar Close, tras vaciar la cola.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for evt := range d.queue {
				d.deliver(evt)
			}
		}()
	}
}

// NotifyLowStock encola la alerta sin bloquear.
func (d *Dispatcher) NotifyLowStock(_ context.Context, evt entity.LowStockEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- evt:
	default:
		d.log.Warn().Str("sku", evt.SKU).Str("location", evt.Location).Msg("cola de alertas llena, alerta descartada")
	}
}

// Close deja de aceptar alertas y espera a que los workers entreguen las pendientes.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) deliver(evt entity.LowStockEvent) {
	for _, s := range d.sinks {
		d.send(s, evt)
	}
}

func (d *Dispatcher) send(s Sink, evt entity.LowStockEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("sink", s.Name()).Msg("sink de alertas falló")
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := s.Send(ctx, evt); err != nil {
		d.log.Error().Err(err).Str("sink", s.Name()).Str("sku", evt.SKU).Str("location", evt.Location).
			Msg("no se pudo entregar la alerta de stock bajo")
	}
}
