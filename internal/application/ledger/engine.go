package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Engine motor transaccional del ledger: cada operación bloquea la(s) fila(s) del ítem
// (SELECT FOR UPDATE), valida, actualiza el ítem, agrega el movimiento y hace Commit o Rollback.
type Engine struct {
	txRunner    TxRunner
	notifier    ReorderNotifier
	invalidator StockInvalidator
	log         zerolog.Logger
	now         func() time.Time
	newID       func() string
}

// NewEngine construye el motor. notifier e invalidator pueden ser nil.
func NewEngine(txRunner TxRunner, notifier ReorderNotifier, invalidator StockInvalidator, log zerolog.Logger) *Engine {
	return &Engine{
		txRunner:    txRunner,
		notifier:    notifier,
		invalidator: invalidator,
		log:         log.With().Str(logger.FieldComponent, "ledger").Logger(),
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

// WithClock reemplaza el reloj (tests y barrido de expiración).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Now devuelve la hora según el reloj del motor.
func (e *Engine) Now() time.Time { return e.now() }

// Result estado posterior de una operación.
type Result struct {
	Item        *entity.InventoryItem
	Movements   []*entity.Movement
	Reservation *entity.Reservation
}

// Movement devuelve el primer movimiento generado (nil si no hubo).
func (r *Result) Movement() *entity.Movement {
	if r == nil || len(r.Movements) == 0 {
		return nil
	}
	return r.Movements[0]
}

// ReceiveCommand entrada de mercancía. Crea el ítem si no existe.
type ReceiveCommand struct {
	Key             entity.ItemKey
	Quantity        decimal.Decimal
	Reason          string
	Reference       entity.Reference
	Metadata        map[string]any
	ExpectedVersion *int64
}

// AdjustCommand ajuste con signo. Type admite adjustment, return, damage, loss y found
// (damage/loss siempre restan, return/found siempre suman).
type AdjustCommand struct {
	Key             entity.ItemKey
	Delta           decimal.Decimal
	Type            entity.MovementType
	Reason          string
	Reference       entity.Reference
	Metadata        map[string]any
	ExpectedVersion *int64
	CreateIfMissing bool
}

// CountCommand conteo físico: fija on_hand en Counted.
type CountCommand struct {
	Key             entity.ItemKey
	Counted         decimal.Decimal
	Reason          string
	Reference       entity.Reference
	Metadata        map[string]any
	ExpectedVersion *int64
}

// ReserveCommand retención de stock para un pedido.
type ReserveCommand struct {
	Key             entity.ItemKey
	Quantity        decimal.Decimal
	OrderID         string
	ExpiresAt       *time.Time
	Metadata        map[string]any
	ExpectedVersion *int64
}

// SettleCommand libera o confirma una reserva. Quantity cero = todo lo pendiente.
// Se admiten parciales mezclados; la operación que deja la reserva en cero fija el estado final
// (confirmar y luego liberar el resto termina en RELEASED). El reparto entre lo confirmado y lo
// liberado queda en CommittedQuantity y ReleasedQuantity de la reserva.
type SettleCommand struct {
	ReservationID string
	Quantity      decimal.Decimal
	Reason        string
	Metadata      map[string]any
}

// TransferCommand traslado entre ubicaciones.
type TransferCommand struct {
	From      entity.ItemKey
	To        entity.ItemKey
	Quantity  decimal.Decimal
	Reason    string
	Reference entity.Reference
	Metadata  map[string]any
}

// CreateItemCommand alta explícita de un ítem con su configuración.
type CreateItemCommand struct {
	Key             entity.ItemKey
	ReorderPoint    *decimal.Decimal
	ReorderQuantity decimal.Decimal
	Backorderable   bool
	InitialQuantity decimal.Decimal
	Reason          string
}

// UpdateSettingsCommand cambia punto/cantidad de reorden y backorderable. Campos nil no cambian.
type UpdateSettingsCommand struct {
	Key               entity.ItemKey
	ReorderPoint      *decimal.Decimal
	ClearReorderPoint bool
	ReorderQuantity   *decimal.Decimal
	Backorderable     *bool
	ExpectedVersion   *int64
}

// txState efectos a publicar solo si la transacción confirma.
type txState struct {
	lowStock []entity.LowStockEvent
	touched  []*entity.InventoryItem
}

func (st *txState) touch(item *entity.InventoryItem) { st.touched = append(st.touched, item) }

// committed estado final de cada ítem tocado, una vez por clave.
func (st *txState) committed() []*entity.InventoryItem {
	last := make(map[entity.ItemKey]int, len(st.touched))
	for i, it := range st.touched {
		last[it.Key()] = i
	}
	out := make([]*entity.InventoryItem, 0, len(last))
	for i, it := range st.touched {
		if last[it.Key()] == i {
			out = append(out, it.Clone())
		}
	}
	return out
}

type txFunc func(
	st *txState,
	items repository.InventoryItemRepository,
	movements repository.MovementRepository,
	reservations repository.ReservationRepository,
) error

// run ejecuta fn en una transacción; tras el commit invalida caché y emite alertas.
func (e *Engine) run(ctx context.Context, op string, fn txFunc) error {
	st := &txState{}
	err := e.txRunner.Run(ctx, func(
		items repository.InventoryItemRepository,
		movements repository.MovementRepository,
		reservations repository.ReservationRepository,
	) error {
		return fn(st, items, movements, reservations)
	})
	if err != nil {
		return e.fail(op, err)
	}
	e.afterCommit(ctx, st)
	return nil
}

// fail devuelve los errores de negocio tal cual; el resto se registra y se oculta como ErrInternal.
func (e *Engine) fail(op string, err error) error {
	if domain.IsBusiness(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	e.log.Error().Err(err).Str(logger.FieldOp, op).Msg("operación de ledger abortada")
	return domain.ErrInternal
}

func (e *Engine) afterCommit(ctx context.Context, st *txState) {
	if e.invalidator != nil && len(st.touched) > 0 {
		e.invalidator.Invalidate(ctx, st.committed()...)
	}
	for _, evt := range st.lowStock {
		e.signal(ctx, evt)
	}
}

// GetOrCreate devuelve el ítem, creándolo vacío si no existe. No genera movimiento.
func (e *Engine) GetOrCreate(ctx context.Context, key entity.ItemKey) (*entity.InventoryItem, error) {
	if !key.Valid() {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.InventoryItem
	err := e.run(ctx, "get_or_create", func(_ *txState, items repository.InventoryItemRepository, _ repository.MovementRepository, _ repository.ReservationRepository) error {
		item, err := e.getOrCreateLocked(ctx, items, key)
		out = item
		return err
	})
	return out, err
}

// Receive suma qty a on_hand y registra un movimiento receipt.
func (e *Engine) Receive(ctx context.Context, cmd ReceiveCommand) (*Result, error) {
	if !cmd.Key.Valid() || !isPositiveInt(cmd.Quantity) || !cmd.Reference.Valid() {
		return nil, domain.ErrInvalidInput
	}
	res := &Result{}
	err := e.run(ctx, "receive", func(st *txState, items repository.InventoryItemRepository, movs repository.MovementRepository, _ repository.ReservationRepository) error {
		item, err := e.getOrCreateLocked(ctx, items, cmd.Key)
		if err != nil {
			return err
		}
		if err := checkVersion(item, cmd.ExpectedVersion); err != nil {
			return err
		}
		mov, err := e.apply(ctx, st, items, movs, item, change{
			typ: entity.MovementReceipt, quantity: cmd.Quantity, onHand: cmd.Quantity,
			reason: cmd.Reason, ref: cmd.Reference, meta: cmd.Metadata,
		})
		if err != nil {
			return err
		}
		res.Item, res.Movements = item, []*entity.Movement{mov}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Adjust aplica un delta con signo. Un delta negativo no puede dejar on_hand por debajo de held
// salvo que el ítem sea backorderable.
func (e *Engine) Adjust(ctx context.Context, cmd AdjustCommand) (*Result, error) {
	typ := cmd.Type
	if typ == "" {
		typ = entity.MovementAdjustment
	}
	delta, ok := signedDelta(typ, cmd.Delta)
	if !ok || !cmd.Key.Valid() || !cmd.Reference.Valid() {
		return nil, domain.ErrInvalidInput
	}
	res := &Result{}
	err := e.run(ctx, "adjust", func(st *txState, items repository.InventoryItemRepository, movs repository.MovementRepository, _ repository.ReservationRepository) error {
		var (
			item *entity.InventoryItem
			err  error
		)
		if cmd.CreateIfMissing {
			item, err = e.getOrCreateLocked(ctx, items, cmd.Key)
		} else {
			item, err = items.GetForUpdate(ctx, cmd.Key)
		}
		if err != nil {
			return err
		}
		if err := checkVersion(item, cmd.ExpectedVersion); err != nil {
			return err
		}
		if delta.IsNegative() && !item.Backorderable && item.OnHand.Add(delta).LessThan(item.Held) {
			return insufficient(item, delta.Abs())
		}
		mov, err := e.apply(ctx, st, items, movs, item, change{
			typ: typ, quantity: delta, onHand: delta,
			reason: cmd.Reason, ref: cmd.Reference, meta: cmd.Metadata,
		})
		if err != nil {
			return err
		}
		res.Item, res.Movements = item, []*entity.Movement{mov}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Count fija on_hand al valor contado con un movimiento count_adjustment.
// Si el conteo coincide no se genera movimiento.
func (e *Engine) Count(ctx context.Context, cmd CountCommand) (*Result, error) {
	if !cmd.Key.Valid() || !cmd.Counted.IsInteger() || cmd.Counted.IsNegative() || !cmd.Reference.Valid() {
		return nil, domain.ErrInvalidInput
	}
	res := &Result{}
	err := e.run(ctx, "count", func(st *txState, items repository.InventoryItemRepository, movs repository.MovementRepository, _ repository.ReservationRepository) error {
		item, err := items.GetForUpdate(ctx, cmd.Key)
		if err != nil {
			return err
		}
		if err := checkVersion(item, cmd.ExpectedVersion); err != nil {
			return err
		}
		res.Item = item
		delta := cmd.Counted.Sub(item.OnHand)
		if delta.IsZero() {
			return nil
		}
		if !item.Backorderable && cmd.Counted.LessThan(item.Held) {
			return insufficient(item, delta.Abs())
		}
		mov, err := e.apply(ctx, st, items, movs, item, change{
			typ: entity.MovementCountAdjustment, quantity: delta, onHand: delta,
			reason: cmd.Reason, ref: cmd.Reference, meta: cmd.Metadata,
		})
		if err != nil {
			return err
		}
		res.Movements = []*entity.Movement{mov}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Reserve retiene qty (held += qty) y crea una reserva PENDING.
func (e *Engine) Reserve(ctx context.Context, cmd ReserveCommand) (*Result, error) {
	if !cmd.Key.Valid() || !isPositiveInt(cmd.Quantity) || cmd.OrderID == "" {
		return nil, domain.ErrInvalidInput
	}
	res := &Result{}
	err := e.run(ctx, "reserve", func(st *txState, items repository.InventoryItemRepository, movs repository.MovementRepository, rsv repository.ReservationRepository) error {
		item, err := items.GetForUpdate(ctx, cmd.Key)
		if err != nil {
			return err
		}
		if err := checkVersion(item, cmd.ExpectedVersion); err != nil {
			return err
		}
		r, mov, err := e.reserveLocked(ctx, st, items, movs, rsv, item, cmd)
		if err != nil {
			return err
		}
		res.Item, res.Movements, res.Reservation = item, []*entity.Movement{mov}, r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) reserveLocked(
	ctx context.Context,
	st *txState,
	items repository.InventoryItemRepository,
	movs repository.MovementRepository,
	rsv repository.ReservationRepository,
	item *entity.InventoryItem,
	cmd ReserveCommand,
) (*entity.Reservation, *entity.Movement, error) {
	if !item.CanReserve(cmd.Quantity) {
		return nil, nil, insufficient(item, cmd.Quantity)
	}
	reservationID := e.newID()
	meta := withMeta(cmd.Metadata, "reservation_id", reservationID)
	mov, err := e.apply(ctx, st, items, movs, item, change{
		typ: entity.MovementReservation, quantity: cmd.Quantity.Neg(), held: cmd.Quantity,
		reason: "reservation", ref: entity.OrderRef(cmd.OrderID), meta: meta,
	})
	if err != nil {
		return nil, nil, err
	}
	r := entity.NewReservation(reservationID, cmd.OrderID, item, cmd.Quantity, cmd.ExpiresAt, mov.CreatedAt)
	r.MovementID = mov.ID
	if err := rsv.Create(ctx, r); err != nil {
		return nil, nil, err
	}
	return r, mov, nil
}

// Release libera (total o parcialmente) una reserva PENDING: held -= qty.
// Al quedar en cero la reserva pasa a RELEASED.
func (e *Engine) Release(ctx context.Context, cmd SettleCommand) (*Result, error) {
	return e.settle(ctx, "release", cmd, entity.ReservationReleased, nil)
}

// Commit confirma (total o parcialmente) una reserva PENDING: on_hand -= qty, held -= qty.
// Al quedar en cero la reserva pasa a CONFIRMED.
func (e *Engine) Commit(ctx context.Context, cmd SettleCommand) (*Result, error) {
	return e.settle(ctx, "commit", cmd, entity.ReservationConfirmed, nil)
}

// Expire vence una reserva PENDING cuyo expires_at ya pasó, devolviendo su cantidad al disponible.
func (e *Engine) Expire(ctx context.Context, reservationID string) (*Result, error) {
	cmd := SettleCommand{
		ReservationID: reservationID,
		Reason:        "reservation expired",
		Metadata:      map[string]any{"expired": true},
	}
	return e.settle(ctx, "expire", cmd, entity.ReservationExpired, func(r *entity.Reservation) error {
		if !r.ExpiredAt(e.now()) {
			return domain.ErrInvalidState
		}
		return nil
	})
}

func (e *Engine) settle(ctx context.Context, op string, cmd SettleCommand, terminal entity.ReservationStatus, guard func(*entity.Reservation) error) (*Result, error) {
	if cmd.ReservationID == "" || !cmd.Quantity.IsInteger() || cmd.Quantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	res := &Result{}
	err := e.run(ctx, op, func(st *txState, items repository.InventoryItemRepository, movs repository.MovementRepository, rsv repository.ReservationRepository) error {
		// Orden de bloqueo: primero el ítem, luego la reserva.
		current, err := rsv.Get(ctx, cmd.ReservationID)
		if err != nil {
			return err
		}
		item, err := items.GetForUpdate(ctx, current.Key())
		if err != nil {
			return err
		}
		r, err := rsv.GetForUpdate(ctx, cmd.ReservationID)
		if err != nil {
			return err
		}
		if r.Status != entity.ReservationPending {
			return domain.ErrInvalidState
		}
		if guard != nil {
			if err := guard(r); err != nil {
				return err
			}
		}
		qty := cmd.Quantity
		if qty.IsZero() {
			qty = r.Quantity
		}
		if qty.GreaterThan(r.Quantity) || qty.GreaterThan(item.Held) {
			return domain.ErrInsufficientReservation
		}

		c := change{
			typ: entity.MovementRelease, quantity: qty, held: qty.Neg(),
			reason: cmd.Reason, ref: entity.OrderRef(r.OrderID),
			meta: withMeta(cmd.Metadata, "reservation_id", r.ID),
		}
		if terminal == entity.ReservationConfirmed {
			c.typ, c.quantity, c.onHand = entity.MovementCommit, qty.Neg(), qty.Neg()
		}
		if c.reason == "" {
			c.reason = op
		}
		mov, err := e.apply(ctx, st, items, movs, item, c)
		if err != nil {
			return err
		}
		r.Reduce(qty, terminal, mov.CreatedAt)
		if err := rsv.Update(ctx, r); err != nil {
			return err
		}
		res.Item, res.Movements, res.Reservation = item, []*entity.Movement{mov}, r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Transfer debita el origen y acredita el destino en una sola transacción.
// Ambas filas se bloquean en orden ascendente de clave para evitar interbloqueos.
func (e *Engine) Transfer(ctx context.Context, cmd TransferCommand) (*Result, error) {
	if !cmd.From.Valid() || !cmd.To.Valid() || cmd.From == cmd.To || !isPositiveInt(cmd.Quantity) {
		return nil, domain.ErrInvalidInput
	}
	ref := cmd.Reference
	if ref.IsZero() {
		ref = entity.TransferRef(e.newID())
	}
	if !ref.Valid() {
		return nil, domain.ErrInvalidInput
	}
	res := &Result{}
	err := e.run(ctx, "transfer", func(st *txState, items repository.InventoryItemRepository, movs repository.MovementRepository, _ repository.ReservationRepository) error {
		var src, dst *entity.InventoryItem
		lockSrc := func() (err error) {
			src, err = items.GetForUpdate(ctx, cmd.From)
			return err
		}
		lockDst := func() (err error) {
			dst, err = e.getOrCreateLocked(ctx, items, cmd.To)
			return err
		}
		first, second := lockSrc, lockDst
		if cmd.To.Less(cmd.From) {
			first, second = lockDst, lockSrc
		}
		if err := first(); err != nil {
			return err
		}
		if err := second(); err != nil {
			return err
		}
		if !src.CanFulfill(cmd.Quantity) {
			return insufficient(src, cmd.Quantity)
		}
		meta := withMeta(cmd.Metadata, "transfer_id", ref.ID)
		out, err := e.apply(ctx, st, items, movs, src, change{
			typ: entity.MovementTransferOut, quantity: cmd.Quantity.Neg(), onHand: cmd.Quantity.Neg(),
			reason: cmd.Reason, ref: ref, meta: withMeta(meta, "counterpart", cmd.To.String()),
		})
		if err != nil {
			return err
		}
		in, err := e.apply(ctx, st, items, movs, dst, change{
			typ: entity.MovementTransferIn, quantity: cmd.Quantity, onHand: cmd.Quantity,
			reason: cmd.Reason, ref: ref, meta: withMeta(meta, "counterpart", cmd.From.String()),
		})
		if err != nil {
			return err
		}
		res.Item, res.Movements = src, []*entity.Movement{out, in}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CreateItem da de alta un ítem; con InitialQuantity > 0 registra además un receipt.
func (e *Engine) CreateItem(ctx context.Context, cmd CreateItemCommand) (*Result, error) {
	if !cmd.Key.Valid() || !validSettings(cmd.ReorderPoint, &cmd.ReorderQuantity) {
		return nil, domain.ErrInvalidInput
	}
	if !cmd.InitialQuantity.IsInteger() || cmd.InitialQuantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	res := &Result{}
	err := e.run(ctx, "create_item", func(st *txState, items repository.InventoryItemRepository, movs repository.MovementRepository, _ repository.ReservationRepository) error {
		item := entity.NewInventoryItem(e.newID(), cmd.Key, e.now())
		item.ReorderPoint = cmd.ReorderPoint
		item.ReorderQuantity = cmd.ReorderQuantity
		item.Backorderable = cmd.Backorderable
		created, err := items.CreateIfAbsent(ctx, item)
		if err != nil {
			return err
		}
		if !created {
			return domain.ErrDuplicate
		}
		locked, err := items.GetForUpdate(ctx, cmd.Key)
		if err != nil {
			return err
		}
		res.Item = locked
		st.touch(locked)
		if !cmd.InitialQuantity.IsPositive() {
			return nil
		}
		reason := cmd.Reason
		if reason == "" {
			reason = "initial stock"
		}
		mov, err := e.apply(ctx, st, items, movs, locked, change{
			typ: entity.MovementReceipt, quantity: cmd.InitialQuantity, onHand: cmd.InitialQuantity, reason: reason,
		})
		if err != nil {
			return err
		}
		res.Movements = []*entity.Movement{mov}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateSettings cambia la configuración del ítem. Desactivar backorderable exige on_hand >= held.
func (e *Engine) UpdateSettings(ctx context.Context, cmd UpdateSettingsCommand) (*entity.InventoryItem, error) {
	if !cmd.Key.Valid() || !validSettings(cmd.ReorderPoint, cmd.ReorderQuantity) {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.InventoryItem
	err := e.run(ctx, "update_settings", func(st *txState, items repository.InventoryItemRepository, _ repository.MovementRepository, _ repository.ReservationRepository) error {
		item, err := items.GetForUpdate(ctx, cmd.Key)
		if err != nil {
			return err
		}
		if err := checkVersion(item, cmd.ExpectedVersion); err != nil {
			return err
		}
		version := item.Version
		switch {
		case cmd.ClearReorderPoint:
			item.ReorderPoint = nil
		case cmd.ReorderPoint != nil:
			rp := *cmd.ReorderPoint
			item.ReorderPoint = &rp
		}
		if cmd.ReorderQuantity != nil {
			item.ReorderQuantity = *cmd.ReorderQuantity
		}
		if cmd.Backorderable != nil {
			item.Backorderable = *cmd.Backorderable
		}
		if !item.CheckInvariants() {
			return &domain.InsufficientStockError{SKU: item.SKU, Location: item.Location, Requested: item.Held, Available: item.OnHand}
		}
		item.UpdatedAt = e.now()
		if err := items.Save(ctx, item, version); err != nil {
			return err
		}
		st.touch(item)
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// change describe un movimiento y sus efectos sobre on_hand y held.
type change struct {
	typ      entity.MovementType
	quantity decimal.Decimal
	onHand   decimal.Decimal
	held     decimal.Decimal
	reason   string
	ref      entity.Reference
	meta     map[string]any
}

// apply muta el ítem bloqueado, lo guarda con control de versión y agrega el movimiento.
func (e *Engine) apply(
	ctx context.Context,
	st *txState,
	items repository.InventoryItemRepository,
	movs repository.MovementRepository,
	item *entity.InventoryItem,
	c change,
) (*entity.Movement, error) {
	now := e.now()
	before := item.Clone()
	item.OnHand = item.OnHand.Add(c.onHand)
	item.Held = item.Held.Add(c.held)
	item.UpdatedAt = now
	if !item.CheckInvariants() {
		return nil, insufficient(before, c.quantity.Abs())
	}
	if err := items.Save(ctx, item, before.Version); err != nil {
		return nil, err
	}
	mov := &entity.Movement{
		ID:             e.newID(),
		ItemID:         item.ID,
		SKU:            item.SKU,
		Location:       item.Location,
		Type:           c.typ,
		Quantity:       c.quantity,
		QuantityBefore: before.OnHand,
		QuantityAfter:  item.OnHand,
		HeldBefore:     before.Held,
		HeldAfter:      item.Held,
		Reason:         c.reason,
		Reference:      c.ref,
		Metadata:       c.meta,
		CreatedAt:      now,
	}
	if err := movs.Append(ctx, mov); err != nil {
		return nil, err
	}
	e.evaluateReorder(st, before, item, now)
	st.touch(item)
	return mov, nil
}

func (e *Engine) getOrCreateLocked(ctx context.Context, items repository.InventoryItemRepository, key entity.ItemKey) (*entity.InventoryItem, error) {
	if _, err := items.CreateIfAbsent(ctx, entity.NewInventoryItem(e.newID(), key, e.now())); err != nil {
		return nil, err
	}
	return items.GetForUpdate(ctx, key)
}

func checkVersion(item *entity.InventoryItem, expected *int64) error {
	if expected != nil && *expected != item.Version {
		return domain.ErrVersionConflict
	}
	return nil
}

func insufficient(item *entity.InventoryItem, requested decimal.Decimal) error {
	return &domain.InsufficientStockError{
		SKU:       item.SKU,
		Location:  item.Location,
		Requested: requested,
		Available: item.Available(),
	}
}

func isPositiveInt(q decimal.Decimal) bool { return q.IsInteger() && q.IsPositive() }

// signedDelta aplica la convención de signo del tipo de ajuste.
func signedDelta(typ entity.MovementType, delta decimal.Decimal) (decimal.Decimal, bool) {
	if !delta.IsInteger() || delta.IsZero() {
		return delta, false
	}
	switch typ {
	case entity.MovementAdjustment:
		return delta, true
	case entity.MovementDamage, entity.MovementLoss:
		return delta.Abs().Neg(), true
	case entity.MovementReturn, entity.MovementFound:
		return delta.Abs(), true
	}
	return delta, false
}

func validSettings(reorderPoint, reorderQty *decimal.Decimal) bool {
	if reorderPoint != nil && (!reorderPoint.IsInteger() || reorderPoint.IsNegative()) {
		return false
	}
	if reorderQty != nil && (!reorderQty.IsInteger() || reorderQty.IsNegative()) {
		return false
	}
	return true
}

// withMeta copia meta y agrega k=v sin mutar el mapa del llamador.
func withMeta(meta map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for mk, mv := range meta {
		out[mk] = mv
	}
	out[k] = v
	return out
}
