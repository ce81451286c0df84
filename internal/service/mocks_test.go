package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-resolver/internal/domain"
)

func nopLogger() *zap.Logger { return zap.NewNop() }

// mockCompleter implements provider.CompletionClient for tests.
type mockCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	fn       func(systemPrompt, userPrompt string) (string, error)
	prompts  []string
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *mockCompleter) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, userPrompt)
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(systemPrompt, userPrompt)
	}
	return m.response, m.err
}

func (m *mockCompleter) Model() string { return "mock-model" }

// mockClassifier returns a fixed category.
type mockClassifier struct {
	category      domain.Category
	lowConfidence bool
}

func (m *mockClassifier) Classify(ctx context.Context, ticket *domain.Ticket) (domain.Category, bool) {
	return m.category, m.lowConfidence
}

// mockRetriever records queries and returns a fixed context set.
type mockRetriever struct {
	mu         sync.Mutex
	contextSet domain.ContextSet
	queries    []string
	categories []domain.Category
}

func (m *mockRetriever) Retrieve(ctx context.Context, category domain.Category, query string) domain.ContextSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	m.categories = append(m.categories, category)
	return m.contextSet
}

// mockDrafter returns a fixed draft.
type mockDrafter struct {
	draft domain.Draft
}

func (m *mockDrafter) Draft(ctx context.Context, ticket *domain.Ticket, category domain.Category, contextSet domain.ContextSet) domain.Draft {
	return m.draft
}

// mockReviewer plays back a verdict sequence and records reviewed drafts.
type mockReviewer struct {
	mu       sync.Mutex
	verdicts []domain.ReviewVerdict
	index    int
	drafts   []domain.Draft
	onReview func()
}

func (m *mockReviewer) Review(ctx context.Context, draft domain.Draft, ticket *domain.Ticket, category domain.Category) domain.ReviewVerdict {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = append(m.drafts, draft)
	if m.onReview != nil {
		m.onReview()
	}
	if m.index >= len(m.verdicts) {
		return domain.ReviewVerdict{Approved: false, Feedback: "rejected without feedback"}
	}
	verdict := m.verdicts[m.index]
	m.index++
	return verdict
}

// memorySink collects escalation records in memory.
type memorySink struct {
	mu      sync.Mutex
	records []domain.EscalationRecord
	err     error
}

func (m *memorySink) Append(ctx context.Context, record *domain.EscalationRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

func (m *memorySink) List(ctx context.Context, limit, offset int) ([]domain.EscalationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EscalationRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}
