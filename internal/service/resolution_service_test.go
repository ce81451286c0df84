package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticket-resolver/internal/config"
	"github.com/spec-kit/ticket-resolver/internal/domain"
	"github.com/spec-kit/ticket-resolver/internal/events"
	apperrors "github.com/spec-kit/ticket-resolver/pkg/util/errorutil"
)

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{MaxReviewAttempts: 2, RetrievalTopK: 5}
}

func newTestService(deps ResolutionDependencies) *ResolutionService {
	if deps.Classifier == nil {
		deps.Classifier = &mockClassifier{category: domain.CategoryTechnical}
	}
	if deps.Retriever == nil {
		deps.Retriever = &mockRetriever{contextSet: domain.ContextSet{
			Snippets: []domain.Snippet{{ID: "s1", Content: "Reset your password from the app settings.", Score: 0.9}},
		}}
	}
	if deps.Drafter == nil {
		deps.Drafter = &mockDrafter{draft: domain.Draft{Text: "Here is how to log in again."}}
	}
	if deps.Sink == nil {
		deps.Sink = &memorySink{}
	}
	return NewResolutionService(pipelineConfig(), deps)
}

func TestProcessTicketApprovedFirstAttempt(t *testing.T) {
	reviewer := &mockReviewer{verdicts: []domain.ReviewVerdict{{Approved: true}}}
	svc := newTestService(ResolutionDependencies{Reviewer: reviewer})

	resolution, err := svc.ProcessTicket(context.Background(), "Login issues", "Can't log in on iPhone app")
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryTechnical, resolution.Category)
	assert.False(t, resolution.Escalated)
	require.Len(t, resolution.Attempts, 1)
	require.NotNil(t, resolution.FinalResponse)
	assert.Equal(t, "Here is how to log in again.", *resolution.FinalResponse)
	assert.Equal(t, "Login issues Can't log in on iPhone app", resolution.Attempts[0].Query)
}

func TestProcessTicketRetryRefinesQuery(t *testing.T) {
	retriever := &mockRetriever{}
	reviewer := &mockReviewer{verdicts: []domain.ReviewVerdict{
		{Approved: false, Feedback: "missing refund policy reference"},
		{Approved: true},
	}}
	svc := newTestService(ResolutionDependencies{Retriever: retriever, Reviewer: reviewer})

	resolution, err := svc.ProcessTicket(context.Background(), "Double charge", "I was billed twice this month")
	require.NoError(t, err)

	assert.False(t, resolution.Escalated)
	require.Len(t, resolution.Attempts, 2)
	require.Len(t, retriever.queries, 2)

	first, second := resolution.Attempts[0].Query, resolution.Attempts[1].Query
	assert.True(t, strings.HasPrefix(second, first), "refined query must keep the prior query intact")
	assert.Contains(t, second, "refund")
	assert.Contains(t, second, "policy")
}

func TestProcessTicketEscalatesAfterExhaustedAttempts(t *testing.T) {
	sink := &memorySink{}
	reviewer := &mockReviewer{verdicts: []domain.ReviewVerdict{
		{Approved: false, Feedback: "tone too informal"},
		{Approved: false, Feedback: "missing escalation contact"},
		{Approved: false, Feedback: "still incomplete"},
	}}
	svc := newTestService(ResolutionDependencies{Reviewer: reviewer, Sink: sink})

	resolution, err := svc.ProcessTicket(context.Background(), "Refund", "Where is my refund?")
	require.NoError(t, err)

	assert.True(t, resolution.Escalated)
	assert.Nil(t, resolution.FinalResponse)
	require.Len(t, resolution.Attempts, 3)

	require.Len(t, sink.records, 1)
	record := sink.records[0]
	require.Len(t, record.Attempts, 3)
	assert.Equal(t, "tone too informal", record.Attempts[0].Verdict.Feedback)
	assert.Equal(t, "missing escalation contact", record.Attempts[1].Verdict.Feedback)
	assert.Equal(t, "still incomplete", record.Attempts[2].Verdict.Feedback)
}

func TestProcessTicketClassifierFailureFallsBackToGeneral(t *testing.T) {
	classifier := NewLLMClassifier(&mockCompleter{err: errors.New("provider down")}, nopLogger(), nil)
	reviewer := &mockReviewer{verdicts: []domain.ReviewVerdict{{Approved: true}}}
	svc := newTestService(ResolutionDependencies{Classifier: classifier, Reviewer: reviewer})

	resolution, err := svc.ProcessTicket(context.Background(), "Hello", "Something odd happened")
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryGeneral, resolution.Category)
	assert.True(t, resolution.LowConfidence)
	assert.False(t, resolution.Escalated)
	require.NotNil(t, resolution.FinalResponse)
}

func TestProcessTicketNeverExceedsAttemptBound(t *testing.T) {
	reviewer := &mockReviewer{} // rejects forever
	svc := newTestService(ResolutionDependencies{Reviewer: reviewer})

	resolution, err := svc.ProcessTicket(context.Background(), "Anything", "At all")
	require.NoError(t, err)
	assert.Len(t, resolution.Attempts, 3)
	assert.True(t, resolution.Escalated)
}

func TestProcessTicketFallbackDraftStillReviewed(t *testing.T) {
	drafter := NewLLMDrafter(&mockCompleter{err: errors.New("model offline")}, nopLogger(), nil)
	reviewer := &mockReviewer{verdicts: []domain.ReviewVerdict{{Approved: true}}}
	svc := newTestService(ResolutionDependencies{Drafter: drafter, Reviewer: reviewer})

	resolution, err := svc.ProcessTicket(context.Background(), "Billing", "Charged twice")
	require.NoError(t, err)

	require.Len(t, reviewer.drafts, 1)
	assert.True(t, reviewer.drafts[0].Fallback)
	assert.Equal(t, FallbackDraftText, reviewer.drafts[0].Text)
	require.Len(t, resolution.Attempts, 1)
	assert.True(t, resolution.Attempts[0].Draft.Fallback)
}

func TestProcessTicketDeterministicProvidersAreIdempotent(t *testing.T) {
	run := func() *domain.Resolution {
		reviewer := &mockReviewer{verdicts: []domain.ReviewVerdict{
			{Approved: false, Feedback: "cite the outage status page"},
			{Approved: true},
		}}
		svc := newTestService(ResolutionDependencies{Reviewer: reviewer})
		resolution, err := svc.ProcessTicket(context.Background(), "Outage", "Service is down for us")
		require.NoError(t, err)
		return resolution
	}

	first, second := run(), run()
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.Escalated, second.Escalated)
	require.Equal(t, len(first.Attempts), len(second.Attempts))
	for i := range first.Attempts {
		assert.Equal(t, first.Attempts[i].Query, second.Attempts[i].Query)
		assert.Equal(t, first.Attempts[i].Draft, second.Attempts[i].Draft)
		assert.Equal(t, first.Attempts[i].Verdict, second.Attempts[i].Verdict)
	}
	assert.Equal(t, first.FinalResponse, second.FinalResponse)
}

func TestProcessTicketCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(ResolutionDependencies{Reviewer: &mockReviewer{}})
	resolution, err := svc.ProcessTicket(ctx, "Subject", "Description")

	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, resolution)
	assert.Empty(t, resolution.Attempts)
	assert.False(t, resolution.Escalated)
	assert.Nil(t, resolution.FinalResponse)
}

func TestProcessTicketCancelledMidLoopKeepsRecordedAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reviewer := &mockReviewer{
		verdicts: []domain.ReviewVerdict{{Approved: false, Feedback: "needs more detail"}},
		onReview: cancel,
	}
	svc := newTestService(ResolutionDependencies{Reviewer: reviewer})

	resolution, err := svc.ProcessTicket(ctx, "Subject", "Description")

	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, resolution)
	assert.Len(t, resolution.Attempts, 1)
	assert.False(t, resolution.Escalated)
}

func TestProcessTicketSinkFailureIsHardError(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	svc := newTestService(ResolutionDependencies{Reviewer: &mockReviewer{}, Sink: sink})

	resolution, err := svc.ProcessTicket(context.Background(), "Subject", "Description")

	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ESCALATION_NOT_RECORDED", domainErr.Code)
	require.NotNil(t, resolution)
	assert.True(t, resolution.Escalated)
}

func TestProcessTicketPublishesEscalationEvent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var got []events.Event
	dispatcher.Subscribe(events.EventTicketEscalated, func(ctx context.Context, event events.Event) error {
		got = append(got, event)
		return nil
	})

	svc := newTestService(ResolutionDependencies{Reviewer: &mockReviewer{}, Dispatcher: dispatcher})
	resolution, err := svc.ProcessTicket(context.Background(), "Subject", "Description")
	require.NoError(t, err)
	require.True(t, resolution.Escalated)

	require.Len(t, got, 1)
	payload, ok := got[0].Payload.(events.TicketEscalatedPayload)
	require.True(t, ok)
	assert.Equal(t, 3, payload.Attempts)
}

func TestProcessTicketLogsFailedEventHandlers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketResolved, func(ctx context.Context, event events.Event) error {
		return errors.New("handler exploded")
	})

	core, logs := observer.New(zap.WarnLevel)
	reviewer := &mockReviewer{verdicts: []domain.ReviewVerdict{{Approved: true}}}
	svc := newTestService(ResolutionDependencies{
		Reviewer:   reviewer,
		Dispatcher: dispatcher,
		Logger:     zap.New(core),
	})

	resolution, err := svc.ProcessTicket(context.Background(), "Subject", "Description")
	require.NoError(t, err, "a failing handler must not fail the pipeline")
	assert.False(t, resolution.Escalated)

	entries := logs.FilterMessage("event handlers failed").All()
	require.NotEmpty(t, entries)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(events.EventTicketResolved), fields["event_type"])
	assert.Contains(t, fields["error"], "handler exploded")
}

func TestProcessBatchKeepsInputOrder(t *testing.T) {
	reviewer := &mockReviewer{verdicts: []domain.ReviewVerdict{
		{Approved: true}, {Approved: true}, {Approved: true},
	}}
	svc := newTestService(ResolutionDependencies{Reviewer: reviewer})

	inputs := []TicketInput{
		{Subject: "A", Description: "first"},
		{Subject: "B", Description: "second"},
		{Subject: "C", Description: "third"},
	}
	resolutions, err := svc.ProcessBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, resolutions, 3)
	for i, resolution := range resolutions {
		require.NotNil(t, resolution, "result %d", i)
		assert.False(t, resolution.Escalated)
	}
}
