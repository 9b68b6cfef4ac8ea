package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

const healthTimeout = 2 * time.Second

// checkUnavailable es lo único que se expone de una dependencia caída; el detalle va al log.
const checkUnavailable = "unavailable"

// HealthCheck consulta las dependencias en paralelo bajo un único plazo compartido.
// Nunca devuelve error: una dependencia caída marca healthy=false.
func (uc *StockUseCase) HealthCheck(ctx context.Context) dto.HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	out := dto.HealthResponse{Healthy: true, Checks: make(map[string]string, len(uc.checks))}
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed []string
	)
	for _, c := range uc.checks {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()
			err := ping(ctx, c)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				uc.log.Warn().Err(err).Str("check", c.Name()).Msg("dependencia no disponible")
				out.Healthy = false
				out.Checks[c.Name()] = checkUnavailable
				failed = append(failed, c.Name())
				return
			}
			out.Checks[c.Name()] = "ok"
		}(c)
	}
	wg.Wait()

	if out.Healthy {
		out.Detail = "ok"
	} else {
		sort.Strings(failed)
		out.Detail = checkUnavailable + ": " + strings.Join(failed, ", ")
	}
	return out
}

// ping aísla pánicos y no espera más allá del plazo aunque la dependencia ignore el contexto.
func ping(ctx context.Context, c HealthChecker) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errPanicCheck
			}
		}()
		done <- c.Ping(ctx)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

var errPanicCheck = errors.New("la comprobación entró en pánico")
