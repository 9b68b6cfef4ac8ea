package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ItemCache caché de lectura de ítems (Redis). Fallos de caché nunca llegan al llamador.
// Set no debe reemplazar una versión mayor ya confirmada: una lectura que cargó el ítem antes
// de un commit llega tarde y se descarta.
type ItemCache interface {
	Get(ctx context.Context, key entity.ItemKey) (*entity.InventoryItem, bool)
	Set(ctx context.Context, item *entity.InventoryItem)
}

// HealthChecker sonda de conectividad de una dependencia.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}

// Readers lecturas fuera de transacción que necesita el caso de uso.
type Readers struct {
	Items        repository.InventoryItemReader
	Movements    repository.MovementReader
	Reservations repository.ReservationReader
}

// Options parámetros del caso de uso.
type Options struct {
	DefaultLocation string
	BatchPolicy     ledger.BatchPolicy
	Cache           ItemCache // opcional
	Checks          []HealthChecker
}

// StockUseCase interfaz externa del ledger: stock, reservas, movimientos y salud.
type StockUseCase struct {
	engine          *ledger.Engine
	items           repository.InventoryItemReader
	movements       repository.MovementReader
	reservations    repository.ReservationReader
	cache           ItemCache
	checks          []HealthChecker
	defaultLocation string
	batchPolicy     ledger.BatchPolicy
	log             zerolog.Logger
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(engine *ledger.Engine, readers Readers, opts Options, log zerolog.Logger) *StockUseCase {
	loc := strings.TrimSpace(opts.DefaultLocation)
	if loc == "" {
		loc = entity.DefaultLocation
	}
	policy := opts.BatchPolicy
	if policy == "" {
		policy = ledger.BatchBestEffort
	}
	return &StockUseCase{
		engine:          engine,
		items:           readers.Items,
		movements:       readers.Movements,
		reservations:    readers.Reservations,
		cache:           opts.Cache,
		checks:          opts.Checks,
		defaultLocation: loc,
		batchPolicy:     policy,
		log:             log.With().Str(logger.FieldComponent, "stock_usecase").Logger(),
	}
}

func (uc *StockUseCase) key(sku, location string) entity.ItemKey {
	if strings.TrimSpace(location) == "" {
		location = uc.defaultLocation
	}
	return entity.NewItemKey(sku, location)
}

// reference arma la referencia tipada; sin tipo explícito se usa def.
func reference(kind, id string, def entity.ReferenceKind) (entity.Reference, error) {
	kind, id = strings.TrimSpace(kind), strings.TrimSpace(id)
	if kind == "" && id == "" {
		return entity.Reference{}, nil
	}
	if id == "" {
		return entity.Reference{}, domain.ErrInvalidInput
	}
	if kind == "" {
		return entity.Reference{Kind: def, ID: id}, nil
	}
	k, ok := entity.ParseReferenceKind(kind)
	if !ok || k == entity.ReferenceNone {
		return entity.Reference{}, domain.ErrInvalidInput
	}
	return entity.Reference{Kind: k, ID: id}, nil
}

// GetStock devuelve el estado del ítem; lee primero de la caché si está configurada.
func (uc *StockUseCase) GetStock(ctx context.Context, sku, location string) (*dto.StockResponse, error) {
	key := uc.key(sku, location)
	if !key.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if uc.cache != nil {
		if it, ok := uc.cache.Get(ctx, key); ok {
			out := toStockResponse(it)
			return &out, nil
		}
	}
	it, err := uc.items.Get(ctx, key)
	if err != nil {
		return nil, uc.readErr("get_stock", err)
	}
	if uc.cache != nil {
		uc.cache.Set(ctx, it)
	}
	out := toStockResponse(it)
	return &out, nil
}

// AdjustStock aplica un ajuste con signo y devuelve el stock actualizado y el movimiento.
func (uc *StockUseCase) AdjustStock(ctx context.Context, in dto.AdjustStockRequest) (*dto.StockMutationResponse, error) {
	ref, err := reference(in.ReferenceType, in.ReferenceID, entity.ReferenceManual)
	if err != nil {
		return nil, err
	}
	res, err := uc.engine.Adjust(ctx, ledger.AdjustCommand{
		Key:             uc.key(in.SKU, in.Location),
		Delta:           in.Delta,
		Type:            entity.MovementType(in.Type),
		Reason:          in.Reason,
		Reference:       ref,
		Metadata:        in.Metadata,
		ExpectedVersion: in.ExpectedVersion,
		CreateIfMissing: in.CreateIfMissing,
	})
	if err != nil {
		return nil, err
	}
	return toMutationResponse(res), nil
}

// ReceiveStock registra una entrada de mercancía (crea el ítem si no existe).
func (uc *StockUseCase) ReceiveStock(ctx context.Context, in dto.ReceiveStockRequest) (*dto.StockMutationResponse, error) {
	ref, err := reference(in.ReferenceType, in.ReferenceID, entity.ReferencePurchaseOrder)
	if err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = "receipt"
	}
	res, err := uc.engine.Receive(ctx, ledger.ReceiveCommand{
		Key:             uc.key(in.SKU, in.Location),
		Quantity:        in.Quantity,
		Reason:          reason,
		Reference:       ref,
		Metadata:        in.Metadata,
		ExpectedVersion: in.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}
	return toMutationResponse(res), nil
}

// CountStock fija on_hand al valor contado.
func (uc *StockUseCase) CountStock(ctx context.Context, in dto.CountStockRequest) (*dto.StockMutationResponse, error) {
	ref, err := reference("", in.ReferenceID, entity.ReferenceCount)
	if err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = "physical count"
	}
	res, err := uc.engine.Count(ctx, ledger.CountCommand{
		Key:             uc.key(in.SKU, in.Location),
		Counted:         in.Counted,
		Reason:          reason,
		Reference:       ref,
		Metadata:        in.Metadata,
		ExpectedVersion: in.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}
	return toMutationResponse(res), nil
}

// TransferStock traslada unidades entre ubicaciones del mismo SKU.
func (uc *StockUseCase) TransferStock(ctx context.Context, in dto.TransferStockRequest) (*dto.StockMutationResponse, error) {
	ref, err := reference("", in.ReferenceID, entity.ReferenceTransfer)
	if err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = "transfer"
	}
	res, err := uc.engine.Transfer(ctx, ledger.TransferCommand{
		From:      uc.key(in.SKU, in.FromLocation),
		To:        uc.key(in.SKU, in.ToLocation),
		Quantity:  in.Quantity,
		Reason:    reason,
		Reference: ref,
		Metadata:  in.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return toMutationResponse(res), nil
}

// CreateItem da de alta un ítem con su configuración de reorden.
func (uc *StockUseCase) CreateItem(ctx context.Context, in dto.CreateItemRequest) (*dto.StockMutationResponse, error) {
	res, err := uc.engine.CreateItem(ctx, ledger.CreateItemCommand{
		Key:             uc.key(in.SKU, in.Location),
		ReorderPoint:    in.ReorderPoint,
		ReorderQuantity: in.ReorderQuantity,
		Backorderable:   in.Backorderable,
		InitialQuantity: in.InitialQuantity,
	})
	if err != nil {
		return nil, err
	}
	return toMutationResponse(res), nil
}

// UpdateSettings cambia punto/cantidad de reorden y backorderable.
func (uc *StockUseCase) UpdateSettings(ctx context.Context, sku string, in dto.UpdateSettingsRequest) (*dto.StockResponse, error) {
	it, err := uc.engine.UpdateSettings(ctx, ledger.UpdateSettingsCommand{
		Key:               uc.key(sku, in.Location),
		ReorderPoint:      in.ReorderPoint,
		ClearReorderPoint: in.ClearReorderPoint,
		ReorderQuantity:   in.ReorderQuantity,
		Backorderable:     in.Backorderable,
		ExpectedVersion:   in.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}
	out := toStockResponse(it)
	return &out, nil
}

// LowStock lista ítems bajo su punto de reorden con la cantidad sugerida de pedido.
// location vacío considera todas las ubicaciones.
func (uc *StockUseCase) LowStock(ctx context.Context, location string, limit int) ([]dto.LowStockItemResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	items, err := uc.items.ListLowStock(ctx, strings.TrimSpace(location), limit)
	if err != nil {
		return nil, uc.readErr("low_stock", err)
	}
	out := make([]dto.LowStockItemResponse, 0, len(items))
	for i, it := range items {
		deficit := it.ReorderPoint.Sub(it.Available())
		suggested := it.ReorderQuantity
		if deficit.GreaterThan(suggested) {
			suggested = deficit
		}
		out = append(out, dto.LowStockItemResponse{
			SKU:               it.SKU,
			Location:          it.Location,
			Available:         it.Available(),
			ReorderPoint:      *it.ReorderPoint,
			ReorderQuantity:   it.ReorderQuantity,
			Deficit:           decimal.Max(deficit, decimal.Zero),
			SuggestedOrderQty: suggested,
			Priority:          i + 1,
		})
	}
	return out, nil
}

// readErr deja pasar errores de dominio y oculta los de almacenamiento como ErrInternal.
func (uc *StockUseCase) readErr(op string, err error) error {
	if domain.IsBusiness(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	uc.log.Error().Err(err).Str(logger.FieldOp, op).Msg("lectura fallida")
	return domain.ErrInternal
}
