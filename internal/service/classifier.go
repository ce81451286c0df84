package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-resolver/internal/domain"
	"github.com/spec-kit/ticket-resolver/internal/observability"
	"github.com/spec-kit/ticket-resolver/internal/provider"
)

// Classifier maps a ticket to a category. Implementations never fail the
// caller: a provider failure or unrecognized label yields CategoryGeneral
// with the low-confidence flag set.
type Classifier interface {
	Classify(ctx context.Context, ticket *domain.Ticket) (domain.Category, bool)
}

const classifySystemPrompt = `You are a support ticket classifier.
Reply with exactly one word: BILLING, TECHNICAL, SECURITY or GENERAL.`

// LLMClassifier classifies tickets with a completion provider.
type LLMClassifier struct {
	completer provider.CompletionClient
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewLLMClassifier constructs the classifier.
func NewLLMClassifier(completer provider.CompletionClient, logger *zap.Logger, metrics *observability.Metrics) *LLMClassifier {
	return &LLMClassifier{completer: completer, logger: logger, metrics: metrics}
}

// Classify returns the ticket's category and whether the result is low
// confidence. Classification runs once per ticket and is never retried.
func (c *LLMClassifier) Classify(ctx context.Context, ticket *domain.Ticket) (domain.Category, bool) {
	prompt := fmt.Sprintf("Subject: %s\nDescription: %s", ticket.Subject, ticket.Description)
	out, err := c.completer.CompleteWithSystem(ctx, classifySystemPrompt, prompt)
	if err != nil {
		c.logger.Warn("classification fell back to GENERAL",
			zap.String("ticket_id", ticket.ID),
			zap.Error(fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)))
		c.metrics.RecordFallback(StepClassification)
		return domain.CategoryGeneral, true
	}

	category, ok := domain.ParseCategory(firstToken(out))
	if !ok {
		c.logger.Warn("unrecognized category label, using GENERAL",
			zap.String("ticket_id", ticket.ID),
			zap.String("label", out))
		c.metrics.RecordFallback(StepClassification)
		return domain.CategoryGeneral, true
	}
	return category, false
}

func firstToken(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,:;\"'")
}
