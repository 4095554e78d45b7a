package deals

import (
	"deal-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the sync feature.
type Handler struct {
	service *Service
	source  Source
	log     *zap.Logger
}

// NewHandler creates a new HTTP handler. The source feeds manually
// triggered runs.
func NewHandler(service *Service, source Source, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, source: source, log: log}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/status", h.HandleStatus)
	group.Post("/run", h.HandleRun)
	group.Get("/conflicts", h.HandleConflicts)
	group.Get("/snapshot", h.HandleSnapshot)
}

// HandleStatus returns the result of the most recent sync run.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	last := h.service.LastResult()
	if last == nil {
		return c.JSON(fiber.Map{"status": "no runs yet"})
	}
	return c.JSON(last)
}

// HandleRun triggers a sync pass immediately, outside the recurring
// schedule. Pass ?direction=bidirectional for a two-way pass.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRequestID(h.log, c)

	if c.Query("direction") == "bidirectional" {
		result, err := h.service.RunBidirectional(c.Context(), h.source)
		if err != nil {
			l.Error("manual bidirectional run failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	}

	result, err := h.service.RunInbound(c.Context(), h.source)
	if err != nil {
		l.Error("manual run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleConflicts lists conflicts awaiting manual resolution.
func (h *Handler) HandleConflicts(c *fiber.Ctx) error {
	l := logger.WithRequestID(h.log, c)

	rows, err := h.service.PendingConflicts(c.Context())
	if err != nil {
		l.Error("conflict listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if rows == nil {
		rows = []ConflictRow{}
	}
	return c.JSON(rows)
}

// HandleSnapshot returns the current destination records, served from the
// snapshot cache.
func (h *Handler) HandleSnapshot(c *fiber.Ctx) error {
	l := logger.WithRequestID(h.log, c)

	records, err := h.service.DestinationSnapshot(c.Context())
	if err != nil {
		l.Error("snapshot failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"count":   len(records),
		"records": records,
	})
}
