package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-resolver/internal/api/dto"
	"github.com/spec-kit/ticket-resolver/internal/repository"
)

// EscalationsHandler exposes the durable escalation log for human review.
type EscalationsHandler struct {
	sink repository.EscalationSink
}

// NewEscalationsHandler constructs the handler.
func NewEscalationsHandler(sink repository.EscalationSink) *EscalationsHandler {
	return &EscalationsHandler{sink: sink}
}

// List GET /v1/escalations.
func (h *EscalationsHandler) List(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	records, err := h.sink.List(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.EscalationResponse, 0, len(records))
	for i := range records {
		items = append(items, dto.FromEscalation(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
