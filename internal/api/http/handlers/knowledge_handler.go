package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-resolver/internal/api/dto"
	"github.com/spec-kit/ticket-resolver/internal/domain"
	"github.com/spec-kit/ticket-resolver/internal/service"
	apperrors "github.com/spec-kit/ticket-resolver/pkg/util/errorutil"
)

// KnowledgeHandler loads knowledge snippets into the retrieval store.
type KnowledgeHandler struct {
	ingest *service.KnowledgeIngestService
}

// NewKnowledgeHandler constructs the handler.
func NewKnowledgeHandler(ingest *service.KnowledgeIngestService) *KnowledgeHandler {
	return &KnowledgeHandler{ingest: ingest}
}

// Ingest POST /v1/knowledge.
func (h *KnowledgeHandler) Ingest(c *fiber.Ctx) error {
	var req dto.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Snippets) == 0 {
		return apperrors.NewValidationError("snippets required", nil)
	}

	inputs := make([]service.SnippetInput, 0, len(req.Snippets))
	for i, snippet := range req.Snippets {
		category, ok := domain.ParseCategory(snippet.Category)
		if !ok {
			return apperrors.NewValidationError("unknown category", map[string]any{"index": i, "category": snippet.Category})
		}
		inputs = append(inputs, service.SnippetInput{Category: category, Content: snippet.Content})
	}

	count, err := h.ingest.Ingest(c.UserContext(), inputs)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"stored": count}})
}
