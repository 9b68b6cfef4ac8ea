package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Sweeper vence periódicamente las reservas PENDING con expires_at cumplido.
type Sweeper struct {
	engine    *Engine
	reader    repository.ReservationReader
	log       zerolog.Logger
	interval  time.Duration
	batchSize int
}

// NewSweeper construye el barrido. interval y batchSize <= 0 toman 30s y 100.
func NewSweeper(engine *Engine, reader repository.ReservationReader, log zerolog.Logger, interval time.Duration, batchSize int) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		engine:    engine,
		reader:    reader,
		log:       log.With().Str(logger.FieldComponent, "reservation_sweeper").Logger(),
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start ejecuta el barrido en cada tick hasta que ctx se cancele.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("barrido de reservas iniciado")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("barrido de reservas detenido")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("error en barrido de reservas")
			}
		}
	}
}

// SweepOnce vence un lote de reservas y devuelve cuántas pasaron a EXPIRED.
// Las que ya cambiaron de estado entre la consulta y el bloqueo se omiten.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	expired, err := s.reader.ListExpired(ctx, s.engine.Now(), s.batchSize)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range expired {
		if _, err := s.engine.Expire(ctx, r.ID); err != nil {
			if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return n, err
			}
			s.log.Error().Err(err).Str(logger.FieldReservationID, r.ID).Msg("no se pudo vencer la reserva")
			continue
		}
		n++
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("reservas vencidas")
	}
	return n, nil
}
