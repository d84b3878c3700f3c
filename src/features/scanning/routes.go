package scanning

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the scanning feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	app.Post("/scan", handler.TriggerScan)
	app.Delete("/scan", handler.CancelScan)
	app.Get("/scan", handler.GetScanStatus)
}
