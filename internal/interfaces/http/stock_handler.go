package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// StockHandler maneja consultas y mutaciones de stock.
type StockHandler struct {
	uc *usecase.StockUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *usecase.StockUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// GetStock godoc
// @Summary      Consultar stock de un SKU
// @Tags         stock
// @Produce      json
// @Param        sku       path   string  true   "SKU"
// @Param        location  query  string  false  "Ubicación (vacío = por defecto)"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{sku} [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.uc.GetStock(c.UserContext(), c.Params("sku"), c.Query("location"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AdjustStock godoc
// @Summary      Ajustar stock
// @Description  Delta con signo. type admite adjustment, return, damage, loss, found.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "sku, location, delta, reason, reference_id"
// @Success      200  {object}  dto.StockMutationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      423  {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.AdjustStock(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReceiveStock godoc
// @Summary      Registrar entrada de mercancía
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveStockRequest  true  "sku, location, quantity"
// @Success      201  {object}  dto.StockMutationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/receive [post]
func (h *StockHandler) ReceiveStock(c *fiber.Ctx) error {
	var in dto.ReceiveStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.ReceiveStock(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CountStock godoc
// @Summary      Conteo físico
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CountStockRequest  true  "sku, location, counted"
// @Success      200  {object}  dto.StockMutationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/count [post]
func (h *StockHandler) CountStock(c *fiber.Ctx) error {
	var in dto.CountStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.CountStock(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TransferStock godoc
// @Summary      Trasladar stock entre ubicaciones
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "sku, from_location, to_location, quantity"
// @Success      200  {object}  dto.StockMutationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/transfer [post]
func (h *StockHandler) TransferStock(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.TransferStock(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Ledger de movimientos de un SKU
// @Description  Orden de registro ascendente. Usar next_cursor para la página siguiente.
// @Tags         stock
// @Produce      json
// @Param        sku       path   string  true   "SKU"
// @Param        location  query  string  false  "Ubicación"
// @Param        cursor    query  string  false  "Cursor opaco"
// @Param        limit     query  int     false  "Tamaño de página (1-200)"
// @Success      200  {object}  dto.MovementPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{sku}/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.CursorPageRequest
	if err := c.QueryParser(&page); err != nil {
		return writeError(c, errInvalidQuery)
	}
	if err := validate.Struct(page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "datos inválidos", Details: formatValidationError(err),
		})
	}
	out, err := h.uc.ListMovements(c.UserContext(), c.Params("sku"), c.Query("location"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetReplenishmentList godoc
// @Summary      Ítems bajo punto de reorden
// @Description  Mayor déficit primero, con cantidad sugerida de pedido.
// @Tags         stock
// @Produce      json
// @Param        location  query  string  false  "Filtrar por ubicación. Vacío = todas."
// @Param        limit     query  int     false  "Máximo de ítems"
// @Success      200  {array}   dto.LowStockItemResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/replenishment [get]
func (h *StockHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.uc.LowStock(c.UserContext(), c.Query("location"), c.QueryInt("limit", 100))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}
