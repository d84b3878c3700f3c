package metrics

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes exposes the prometheus scrape endpoint.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := promhttp.HandlerFor(service.Registry(), promhttp.HandlerOpts{})
	app.Get("/metrics", adaptor.HTTPHandler(handler))
}
