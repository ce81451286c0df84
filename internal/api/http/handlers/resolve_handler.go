package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-resolver/internal/api/dto"
	"github.com/spec-kit/ticket-resolver/internal/service"
	apperrors "github.com/spec-kit/ticket-resolver/pkg/util/errorutil"
)

// maxBatchSize bounds one batch submission.
const maxBatchSize = 50

// ResolveHandler exposes the ticket resolution pipeline.
type ResolveHandler struct {
	resolutions *service.ResolutionService
}

// NewResolveHandler constructs the handler.
func NewResolveHandler(resolutions *service.ResolutionService) *ResolveHandler {
	return &ResolveHandler{resolutions: resolutions}
}

// Resolve POST /v1/tickets/resolve.
func (h *ResolveHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Subject) == "" && strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("subject or description required", nil)
	}

	resolution, err := h.resolutions.ProcessTicket(c.UserContext(), req.Subject, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromResolution(resolution)})
}

// ResolveBatch POST /v1/tickets/resolve-batch.
func (h *ResolveHandler) ResolveBatch(c *fiber.Ctx) error {
	var req dto.ResolveBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Tickets) == 0 {
		return apperrors.NewValidationError("tickets required", nil)
	}
	if len(req.Tickets) > maxBatchSize {
		return apperrors.NewValidationError("too many tickets in one batch", map[string]any{"max": maxBatchSize})
	}

	inputs := make([]service.TicketInput, 0, len(req.Tickets))
	for i, ticket := range req.Tickets {
		if strings.TrimSpace(ticket.Subject) == "" && strings.TrimSpace(ticket.Description) == "" {
			return apperrors.NewValidationError("subject or description required", map[string]any{"index": i})
		}
		inputs = append(inputs, service.TicketInput{
			Subject:     ticket.Subject,
			Description: ticket.Description,
		})
	}

	resolutions, err := h.resolutions.ProcessBatch(c.UserContext(), inputs)
	if err != nil {
		return err
	}
	items := make([]dto.ResolutionResponse, 0, len(resolutions))
	for _, resolution := range resolutions {
		items = append(items, dto.FromResolution(resolution))
	}
	return c.JSON(fiber.Map{"data": items})
}
