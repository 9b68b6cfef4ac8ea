package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// ReservationHandler ciclo de vida de reservas de pedidos.
type ReservationHandler struct {
	uc *usecase.StockUseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(uc *usecase.StockUseCase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

// Reserve godoc
// @Summary      Reservar stock para un pedido
// @Description  201 si todas las líneas quedaron reservadas; 200 con failures si no.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveStockRequest  true  "order_id, items, expiration_seconds, policy"
// @Success      201  {object}  dto.ReserveStockResponse
// @Success      200  {object}  dto.ReserveStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.ReserveStock(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusOK
	if out.FullyReserved {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(out)
}

// settleBody el cuerpo es opcional en release/confirm.
func settleBody(c *fiber.Ctx) (dto.SettleReservationRequest, bool, error) {
	var in dto.SettleReservationRequest
	if len(c.Body()) == 0 {
		return in, true, nil
	}
	ok, err := bind(c, &in)
	return in, ok, err
}

// Release godoc
// @Summary      Liberar reserva
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true   "ID de la reserva"
// @Param        body  body  dto.SettleReservationRequest  false  "quantity (0 = todo), reason"
// @Success      200  {object}  dto.ReservationMutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	in, ok, err := settleBody(c)
	if !ok {
		return err
	}
	out, err := h.uc.ReleaseReservation(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Confirm godoc
// @Summary      Confirmar reserva
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true   "ID de la reserva"
// @Param        body  body  dto.SettleReservationRequest  false  "quantity (0 = todo), reason"
// @Success      200  {object}  dto.ReservationMutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c *fiber.Ctx) error {
	in, ok, err := settleBody(c)
	if !ok {
		return err
	}
	out, err := h.uc.ConfirmReservation(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener reserva
// @Tags         reservations
// @Produce      json
// @Param        id  path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id} [get]
func (h *ReservationHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetReservation(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListByOrder godoc
// @Summary      Reservas de un pedido
// @Tags         reservations
// @Produce      json
// @Param        order_id  path  string  true  "ID del pedido"
// @Success      200  {array}   dto.ReservationResponse
// @Router       /api/orders/{order_id}/reservations [get]
func (h *ReservationHandler) ListByOrder(c *fiber.Ctx) error {
	list, err := h.uc.ListOrderReservations(c.UserContext(), c.Params("order_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}
