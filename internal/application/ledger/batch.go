package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// BatchPolicy comportamiento de ReserveMany ante líneas que no se pueden reservar.
type BatchPolicy string

const (
	// BatchBestEffort reserva cada línea en su propia transacción; las fallidas se reportan.
	BatchBestEffort BatchPolicy = "best_effort"
	// BatchAllOrNothing reserva todas las líneas en una transacción o ninguna.
	BatchAllOrNothing BatchPolicy = "all_or_nothing"
)

// ParseBatchPolicy interpreta el nombre de la política; vacío devuelve def.
func ParseBatchPolicy(s string, def BatchPolicy) (BatchPolicy, error) {
	switch BatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case BatchBestEffort:
		return BatchBestEffort, nil
	case BatchAllOrNothing:
		return BatchAllOrNothing, nil
	}
	return def, fmt.Errorf("%w: política de lote desconocida %q", domain.ErrInvalidInput, s)
}

// Motivos de falla por línea.
const (
	ReasonInsufficientStock = "insufficient_stock"
	ReasonNotFound          = "not_found"
	ReasonInvalidQuantity   = "invalid_quantity"
	ReasonLockTimeout       = "lock_timeout"
	ReasonInternal          = "internal"
)

// ReserveLine una línea del pedido.
type ReserveLine struct {
	Key      entity.ItemKey
	Quantity decimal.Decimal
}

// LineFailure línea que no se pudo reservar.
type LineFailure struct {
	SKU       string
	Location  string
	Requested decimal.Decimal
	Available decimal.Decimal
	Reason    string
}

// ReserveManyCommand reserva varias líneas de un mismo pedido.
type ReserveManyCommand struct {
	OrderID   string
	Lines     []ReserveLine
	ExpiresAt *time.Time
	Policy    BatchPolicy
	Metadata  map[string]any
}

// ReserveManyResult reservas creadas y líneas fallidas.
type ReserveManyResult struct {
	OrderID       string
	Reservations  []*entity.Reservation
	Failures      []LineFailure
	FullyReserved bool
}

// errBatchRejected fuerza el rollback del lote todo-o-nada.
var errBatchRejected = errors.New("lote rechazado")

// ReserveMany reserva las líneas según la política. Las fallas de negocio por línea se devuelven en
// Failures; solo errores de entrada del comando o de infraestructura se devuelven como error.
func (e *Engine) ReserveMany(ctx context.Context, cmd ReserveManyCommand) (*ReserveManyResult, error) {
	if strings.TrimSpace(cmd.OrderID) == "" || len(cmd.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	switch cmd.Policy {
	case "", BatchBestEffort:
		return e.reserveBestEffort(ctx, cmd)
	case BatchAllOrNothing:
		return e.reserveAllOrNothing(ctx, cmd)
	}
	return nil, domain.ErrInvalidInput
}

func (e *Engine) reserveBestEffort(ctx context.Context, cmd ReserveManyCommand) (*ReserveManyResult, error) {
	out := &ReserveManyResult{OrderID: cmd.OrderID}
	for _, line := range cmd.Lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := e.Reserve(ctx, ReserveCommand{
			Key:       line.Key,
			Quantity:  line.Quantity,
			OrderID:   cmd.OrderID,
			ExpiresAt: cmd.ExpiresAt,
			Metadata:  cmd.Metadata,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			out.Failures = append(out.Failures, lineFailure(line, err))
			continue
		}
		out.Reservations = append(out.Reservations, res.Reservation)
	}
	out.FullyReserved = len(out.Failures) == 0
	return out, nil
}

func (e *Engine) reserveAllOrNothing(ctx context.Context, cmd ReserveManyCommand) (*ReserveManyResult, error) {
	out := &ReserveManyResult{OrderID: cmd.OrderID}

	// Orden global de bloqueo; las líneas del mismo ítem comparten la fila bloqueada.
	lines := make([]ReserveLine, len(cmd.Lines))
	copy(lines, cmd.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Key.Less(lines[j].Key) })

	st := &txState{}
	var created []*entity.Reservation
	err := e.txRunner.Run(ctx, func(items repository.InventoryItemRepository, movs repository.MovementRepository, rsv repository.ReservationRepository) error {
		locked := make(map[entity.ItemKey]*entity.InventoryItem, len(lines))
		for _, line := range lines {
			if !line.Key.Valid() || !isPositiveInt(line.Quantity) {
				out.Failures = append(out.Failures, lineFailure(line, domain.ErrInvalidInput))
				continue
			}
			item, ok := locked[line.Key]
			if !ok {
				var err error
				item, err = items.GetForUpdate(ctx, line.Key)
				if errors.Is(err, domain.ErrNotFound) {
					out.Failures = append(out.Failures, lineFailure(line, err))
					continue
				}
				if err != nil {
					return err
				}
				locked[line.Key] = item
			}
			r, _, err := e.reserveLocked(ctx, st, items, movs, rsv, item, ReserveCommand{
				Key:       line.Key,
				Quantity:  line.Quantity,
				OrderID:   cmd.OrderID,
				ExpiresAt: cmd.ExpiresAt,
				Metadata:  cmd.Metadata,
			})
			if errors.Is(err, domain.ErrInsufficientStock) {
				out.Failures = append(out.Failures, lineFailure(line, err))
				continue
			}
			if err != nil {
				return err
			}
			created = append(created, r)
		}
		if len(out.Failures) > 0 {
			return errBatchRejected
		}
		return nil
	})
	switch {
	case errors.Is(err, errBatchRejected):
		e.log.Info().Str(logger.FieldOrderID, cmd.OrderID).Int("failures", len(out.Failures)).
			Msg("reserva de lote rechazada, sin cambios")
		return out, nil
	case err != nil:
		return nil, e.fail("reserve_many", err)
	}
	e.afterCommit(ctx, st)
	out.Reservations = created
	out.FullyReserved = true
	return out, nil
}

func lineFailure(line ReserveLine, err error) LineFailure {
	f := LineFailure{SKU: line.Key.SKU, Location: line.Key.Location, Requested: line.Quantity}
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		f.Reason, f.Available = ReasonInsufficientStock, insufficient.Available
	case errors.Is(err, domain.ErrInsufficientStock):
		f.Reason = ReasonInsufficientStock
	case errors.Is(err, domain.ErrNotFound):
		f.Reason = ReasonNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		f.Reason = ReasonInvalidQuantity
	case errors.Is(err, domain.ErrLockTimeout):
		f.Reason = ReasonLockTimeout
	default:
		f.Reason = ReasonInternal
	}
	return f
}
