package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// ItemHandler alta y configuración de ítems.
type ItemHandler struct {
	uc *usecase.StockUseCase
}

func NewItemHandler(uc *usecase.StockUseCase) *ItemHandler {
	return &ItemHandler{uc: uc}
}

// Create godoc
// @Summary      Crear ítem
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "sku, location, reorder_point, reorder_quantity, backorderable, initial_quantity"
// @Success      201  {object}  dto.StockMutationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateItem(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateSettings godoc
// @Summary      Actualizar configuración de reorden
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        sku   path  string                     true  "SKU"
// @Param        body  body  dto.UpdateSettingsRequest  true  "location, reorder_point, reorder_quantity, backorderable, expected_version"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/items/{sku} [put]
func (h *ItemHandler) UpdateSettings(c *fiber.Ctx) error {
	var in dto.UpdateSettingsRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.UpdateSettings(c.UserContext(), c.Params("sku"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
