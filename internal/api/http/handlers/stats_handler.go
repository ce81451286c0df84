package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-resolver/internal/observability"
)

// StatsHandler exposes pipeline counters.
type StatsHandler struct {
	metrics *observability.Metrics
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(metrics *observability.Metrics) *StatsHandler {
	return &StatsHandler{metrics: metrics}
}

// Pipeline GET /v1/stats.
func (h *StatsHandler) Pipeline(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.PipelineSnapshot()})
}
