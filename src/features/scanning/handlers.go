package scanning

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the scanning feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the scanning feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// TriggerScan starts a scan. An optional JSON body with a "roots"
// list narrows the scan to a subset of the configured roots.
func (h *Handler) TriggerScan(c *fiber.Ctx) error {
	slog.Debug("TriggerScan handler called")

	var body struct {
		Roots []string `json:"roots"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	id, err := h.service.Trigger(body.Roots)
	if err != nil {
		if errors.Is(err, ErrScanInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("Error triggering scan", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not start scan"})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"scan": id})
}

// CancelScan cancels the running scan, if any.
func (h *Handler) CancelScan(c *fiber.Ctx) error {
	slog.Debug("CancelScan handler called")

	if err := h.service.Cancel(); err != nil {
		if errors.Is(err, ErrNoScanRunning) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("Error cancelling scan", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not cancel scan"})
	}
	return c.JSON(fiber.Map{"status": "cancelling"})
}

// GetScanStatus reports the scheduler state and the last finished
// scan's summary.
func (h *Handler) GetScanStatus(c *fiber.Ctx) error {
	slog.Debug("GetScanStatus handler called")

	return c.JSON(fiber.Map{
		"status": h.service.Status(),
		"last":   h.service.LastSummary(),
	})
}
