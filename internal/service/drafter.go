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

// Drafter synthesizes a response from the ticket and the supplied context
// only. Each attempt is drafted independently; prior drafts are never fed
// back in. Implementations never fail the caller: a provider failure yields
// the fixed fallback template, which is still subject to review.
type Drafter interface {
	Draft(ctx context.Context, ticket *domain.Ticket, category domain.Category, contextSet domain.ContextSet) domain.Draft
}

const draftSystemPrompt = `You are a customer support agent. Write a concise,
polite response to the customer's ticket using only the knowledge snippets
provided. If the snippets do not cover the question, say what you can and
offer further help. Do not invent policies.`

// FallbackDraftText is the safe template used when drafting is unavailable.
const FallbackDraftText = "We're sorry, we couldn't generate a complete answer " +
	"to your request right now. A member of our support team will follow up " +
	"with you shortly."

// LLMDrafter drafts responses with a completion provider.
type LLMDrafter struct {
	completer provider.CompletionClient
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewLLMDrafter constructs the drafter.
func NewLLMDrafter(completer provider.CompletionClient, logger *zap.Logger, metrics *observability.Metrics) *LLMDrafter {
	return &LLMDrafter{completer: completer, logger: logger, metrics: metrics}
}

// Draft produces a candidate response for one attempt.
func (d *LLMDrafter) Draft(ctx context.Context, ticket *domain.Ticket, category domain.Category, contextSet domain.ContextSet) domain.Draft {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Category: %s\nSubject: %s\nDescription: %s\n", category, ticket.Subject, ticket.Description)
	if contextSet.Empty() {
		prompt.WriteString("\nNo knowledge snippets are available for this ticket.\n")
	} else {
		prompt.WriteString("\nKnowledge snippets:\n")
		for i, snippet := range contextSet.Snippets {
			fmt.Fprintf(&prompt, "%d. %s\n", i+1, snippet.Content)
		}
	}

	out, err := d.completer.CompleteWithSystem(ctx, draftSystemPrompt, prompt.String())
	if err != nil {
		d.logger.Warn("drafting fell back to safe template",
			zap.String("ticket_id", ticket.ID),
			zap.Error(fmt.Errorf("%w: %v", ErrDraftUnavailable, err)))
		d.metrics.RecordFallback(StepDraft)
		return domain.Draft{Text: FallbackDraftText, Fallback: true}
	}
	return domain.Draft{Text: strings.TrimSpace(out)}
}
