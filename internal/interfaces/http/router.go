package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC *usecase.StockUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", Health(deps.StockUC))

	api := app.Group("/api")

	stockHandler := NewStockHandler(deps.StockUC)
	stock := api.Group("/stock")
	stock.Post("/adjust", stockHandler.AdjustStock)
	stock.Post("/receive", stockHandler.ReceiveStock)
	stock.Post("/count", stockHandler.CountStock)
	stock.Post("/transfer", stockHandler.TransferStock)
	stock.Get("/:sku/movements", stockHandler.ListMovements)
	stock.Get("/:sku", stockHandler.GetStock)
	api.Get("/replenishment", stockHandler.GetReplenishmentList)

	itemHandler := NewItemHandler(deps.StockUC)
	items := api.Group("/items")
	items.Post("/", itemHandler.Create)
	items.Put("/:sku", itemHandler.UpdateSettings)

	reservationHandler := NewReservationHandler(deps.StockUC)
	reservations := api.Group("/reservations")
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Get("/:id", reservationHandler.GetByID)
	reservations.Post("/:id/release", reservationHandler.Release)
	reservations.Post("/:id/confirm", reservationHandler.Confirm)
	api.Get("/orders/:order_id/reservations", reservationHandler.ListByOrder)
}
