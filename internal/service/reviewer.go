package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-resolver/internal/domain"
	"github.com/spec-kit/ticket-resolver/internal/observability"
	"github.com/spec-kit/ticket-resolver/internal/provider"
)

// Reviewer validates a draft against policy. Fail-closed: an ambiguous or
// unavailable review is never treated as approval.
type Reviewer interface {
	Review(ctx context.Context, draft domain.Draft, ticket *domain.Ticket, category domain.Category) domain.ReviewVerdict
}

const reviewSystemPrompt = `You are a support response reviewer. Evaluate the
draft for policy compliance and relevance to the ticket. Reply with JSON only:
{"approved": bool, "feedback": "why it was rejected, empty when approved",
"violated_policies": ["policy identifiers"]}`

// LLMReviewer reviews drafts with a completion provider.
type LLMReviewer struct {
	completer provider.CompletionClient
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewLLMReviewer constructs the reviewer.
func NewLLMReviewer(completer provider.CompletionClient, logger *zap.Logger, metrics *observability.Metrics) *LLMReviewer {
	return &LLMReviewer{completer: completer, logger: logger, metrics: metrics}
}

type reviewPayload struct {
	Approved         bool     `json:"approved"`
	Feedback         string   `json:"feedback"`
	ViolatedPolicies []string `json:"violated_policies"`
}

// Review returns the verdict for one draft.
func (r *LLMReviewer) Review(ctx context.Context, draft domain.Draft, ticket *domain.Ticket, category domain.Category) domain.ReviewVerdict {
	prompt := fmt.Sprintf("Category: %s\nSubject: %s\nDescription: %s\n\nDraft response:\n%s",
		category, ticket.Subject, ticket.Description, draft.Text)

	out, err := r.completer.CompleteWithSystem(ctx, reviewSystemPrompt, prompt)
	if err != nil {
		return r.failClosed(ticket, err)
	}

	var payload reviewPayload
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &payload); err != nil {
		return r.failClosed(ticket, fmt.Errorf("parse verdict: %w", err))
	}

	verdict := domain.ReviewVerdict{
		Approved:         payload.Approved,
		Feedback:         strings.TrimSpace(payload.Feedback),
		ViolatedPolicies: payload.ViolatedPolicies,
	}
	// Approval requires a clean policy slate.
	if len(verdict.ViolatedPolicies) > 0 {
		verdict.Approved = false
		if verdict.Feedback == "" {
			verdict.Feedback = "violated policies: " + strings.Join(verdict.ViolatedPolicies, ", ")
		}
	}
	if verdict.Approved {
		verdict.Feedback = ""
	} else if verdict.Feedback == "" {
		verdict.Feedback = "rejected without feedback"
	}
	return verdict
}

func (r *LLMReviewer) failClosed(ticket *domain.Ticket, err error) domain.ReviewVerdict {
	r.logger.Warn("review unavailable, rejecting draft",
		zap.String("ticket_id", ticket.ID),
		zap.Error(fmt.Errorf("%w: %v", ErrReviewUnavailable, err)))
	r.metrics.RecordFallback(StepReview)
	return domain.ReviewVerdict{
		Approved:    false,
		Feedback:    "review unavailable",
		Unavailable: true,
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
