package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/ticket-resolver/internal/config"
	"github.com/spec-kit/ticket-resolver/internal/domain"
	"github.com/spec-kit/ticket-resolver/internal/events"
	"github.com/spec-kit/ticket-resolver/internal/observability"
	"github.com/spec-kit/ticket-resolver/internal/repository"
	apperrors "github.com/spec-kit/ticket-resolver/pkg/util/errorutil"
)

// batchConcurrency bounds parallel pipelines in ProcessBatch. Tickets are
// fully independent, so the limit only protects provider quotas.
const batchConcurrency = 4

// ResolutionService drives a ticket through classify -> retrieve -> draft ->
// review, looping back to retrieval with a refined query on rejection, up to
// the attempt bound, then finalizes or escalates.
type ResolutionService struct {
	classifier  Classifier
	retriever   Retriever
	drafter     Drafter
	reviewer    Reviewer
	refiner     RefinementPolicy
	sink        repository.EscalationSink
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	maxAttempts int
}

// ResolutionDependencies bundles collaborators for the resolution service.
type ResolutionDependencies struct {
	Classifier Classifier
	Retriever  Retriever
	Drafter    Drafter
	Reviewer   Reviewer
	Refiner    RefinementPolicy
	Sink       repository.EscalationSink
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// TicketInput is one ticket submission.
type TicketInput struct {
	Subject     string
	Description string
}

// NewResolutionService constructs the service.
func NewResolutionService(cfg config.PipelineConfig, deps ResolutionDependencies) *ResolutionService {
	refiner := deps.Refiner
	if refiner == nil {
		refiner = NewKeywordAppendPolicy()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolutionService{
		classifier:  deps.Classifier,
		retriever:   deps.Retriever,
		drafter:     deps.Drafter,
		reviewer:    deps.Reviewer,
		refiner:     refiner,
		sink:        deps.Sink,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		metrics:     deps.Metrics,
		maxAttempts: cfg.MaxAttempts(),
	}
}

// ProcessTicket resolves one ticket end to end and returns the terminal
// projection. The returned error is non-nil only for cancellation or an
// escalation-record write failure; every provider failure degrades into a
// recorded fallback instead.
func (s *ResolutionService) ProcessTicket(ctx context.Context, subject, description string) (*domain.Resolution, error) {
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Subject:     strings.TrimSpace(subject),
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now(),
	}
	state := domain.NewTicketState(ticket, s.maxAttempts)

	// Classification runs once; the result is fixed for the rest of the loop.
	category, lowConfidence := s.classifier.Classify(ctx, ticket)
	state.Category = category
	state.LowConfidence = lowConfidence
	s.publish(ctx, events.Event{
		Type:     events.EventTicketClassified,
		TicketID: ticket.ID,
		Payload: events.TicketClassifiedPayload{
			Category:      category,
			LowConfidence: lowConfidence,
		},
	})

	query := ticket.Text()
	for n := 1; n <= s.maxAttempts; n++ {
		// Cancellation is honored at attempt boundaries only, keeping the
		// recorded attempts intact for diagnostics.
		if err := ctx.Err(); err != nil {
			state.Cancel()
			s.metrics.RecordOutcome(false, true)
			return domain.NewResolution(state), err
		}

		contextSet := s.retriever.Retrieve(ctx, category, query)
		if contextSet.Empty() {
			s.logger.Warn("drafting with low context",
				zap.String("ticket_id", ticket.ID),
				zap.Int("attempt", n))
		}
		draft := s.drafter.Draft(ctx, ticket, category, contextSet)
		verdict := s.reviewer.Review(ctx, draft, ticket, category)

		attempt := domain.Attempt{
			Number:  n,
			Query:   query,
			Context: contextSet,
			Draft:   draft,
			Verdict: verdict,
		}
		if err := state.RecordAttempt(attempt); err != nil {
			return nil, fmt.Errorf("record attempt %d: %w", n, err)
		}
		s.metrics.RecordAttempt()
		s.publish(ctx, events.Event{
			Type:     events.EventAttemptReviewed,
			TicketID: ticket.ID,
			Payload: events.AttemptReviewedPayload{
				AttemptNumber:    n,
				Approved:         verdict.Approved,
				Feedback:         verdict.Feedback,
				ViolatedPolicies: verdict.ViolatedPolicies,
			},
		})

		if verdict.Approved {
			if err := state.Finalize(draft.Text); err != nil {
				return nil, fmt.Errorf("finalize: %w", err)
			}
			s.metrics.RecordOutcome(false, false)
			s.publish(ctx, events.Event{
				Type:     events.EventTicketResolved,
				TicketID: ticket.ID,
				Payload: events.TicketResolvedPayload{
					Category: category,
					Attempts: len(state.Attempts),
				},
			})
			return domain.NewResolution(state), nil
		}

		if n < s.maxAttempts {
			query = s.refiner.Refine(query, verdict.Feedback)
		}
	}

	return s.escalate(ctx, state)
}

// escalate records the terminal handoff. A sink write failure is the one
// unrecoverable condition: the outcome could not be durably recorded, so it
// is surfaced to the caller instead of being dropped.
func (s *ResolutionService) escalate(ctx context.Context, state *domain.TicketState) (*domain.Resolution, error) {
	if err := state.Escalate(); err != nil {
		return nil, fmt.Errorf("escalate: %w", err)
	}
	record, err := domain.NewEscalationRecord(uuid.NewString(), state, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.sink.Append(ctx, record); err != nil {
		s.logger.Error("escalation record write failed",
			zap.String("ticket_id", state.Ticket.ID),
			zap.Error(err))
		return domain.NewResolution(state), apperrors.NewDependencyFailure(
			"ESCALATION_NOT_RECORDED",
			"escalation outcome could not be durably recorded",
			map[string]any{"ticket_id": state.Ticket.ID},
		)
	}

	s.metrics.RecordOutcome(true, false)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: state.Ticket.ID,
		Payload: events.TicketEscalatedPayload{
			EscalationID: record.ID,
			Category:     state.Category,
			Attempts:     len(state.Attempts),
			LastFeedback: state.LastAttempt().Verdict.Feedback,
		},
	})
	s.logger.Info("ticket escalated",
		zap.String("ticket_id", state.Ticket.ID),
		zap.String("escalation_id", record.ID),
		zap.Int("attempts", len(state.Attempts)))
	return domain.NewResolution(state), nil
}

// ProcessBatch resolves independent tickets in parallel. Results are ordered
// like the inputs; the first hard failure cancels remaining work.
func (s *ResolutionService) ProcessBatch(ctx context.Context, inputs []TicketInput) ([]*domain.Resolution, error) {
	results := make([]*domain.Resolution, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			resolution, err := s.ProcessTicket(gctx, input.Subject, input.Description)
			if err != nil {
				return err
			}
			results[i] = resolution
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *ResolutionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
