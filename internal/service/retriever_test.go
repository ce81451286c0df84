package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-resolver/internal/domain"
	"github.com/spec-kit/ticket-resolver/internal/repository"
)

// mockEmbedder returns a fixed vector per text.
type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vectors[text], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vector)
	}
	return out, nil
}

// mockKnowledgeRepo serves entries from memory. Writes are serialized because
// ingestion creates entries concurrently.
type mockKnowledgeRepo struct {
	mu      sync.Mutex
	entries map[domain.Category][]repository.KnowledgeEntry
	err     error
}

func (m *mockKnowledgeRepo) Create(ctx context.Context, entry *repository.KnowledgeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.entries == nil {
		m.entries = make(map[domain.Category][]repository.KnowledgeEntry)
	}
	m.entries[entry.Category] = append(m.entries[entry.Category], *entry)
	return nil
}

func (m *mockKnowledgeRepo) ListByCategory(ctx context.Context, category domain.Category) ([]repository.KnowledgeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[category], nil
}

func (m *mockKnowledgeRepo) CountByCategory(ctx context.Context, category domain.Category) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.entries[category]), nil
}

func newRetrieverUnderTest(topK int, minScore float64, embedder *mockEmbedder, repo *mockKnowledgeRepo) *VectorRetriever {
	return NewVectorRetriever(topK, minScore, VectorRetrieverDependencies{
		Embedder:  embedder,
		Knowledge: repo,
		Logger:    nopLogger(),
	})
}

func TestVectorRetrieverRanksBySimilarity(t *testing.T) {
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"refund timeline": {1, 0, 0},
	}}
	repo := &mockKnowledgeRepo{entries: map[domain.Category][]repository.KnowledgeEntry{
		domain.CategoryBilling: {
			{ID: "k1", Content: "orthogonal", Embedding: []float32{0, 1, 0}},
			{ID: "k2", Content: "exact match", Embedding: []float32{1, 0, 0}},
			{ID: "k3", Content: "close match", Embedding: []float32{1, 0.5, 0}},
		},
	}}
	retriever := newRetrieverUnderTest(5, 0.3, embedder, repo)

	contextSet := retriever.Retrieve(context.Background(), domain.CategoryBilling, "refund timeline")

	require.False(t, contextSet.Degraded)
	require.Len(t, contextSet.Snippets, 2, "orthogonal entry falls below the score floor")
	assert.Equal(t, "k2", contextSet.Snippets[0].ID)
	assert.Equal(t, "k3", contextSet.Snippets[1].ID)
	assert.Greater(t, contextSet.Snippets[0].Score, contextSet.Snippets[1].Score)
}

func TestVectorRetrieverHonorsTopK(t *testing.T) {
	embedder := &mockEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	entries := make([]repository.KnowledgeEntry, 0, 8)
	for i := 0; i < 8; i++ {
		entries = append(entries, repository.KnowledgeEntry{ID: "k", Content: "c", Embedding: []float32{1, 0}})
	}
	repo := &mockKnowledgeRepo{entries: map[domain.Category][]repository.KnowledgeEntry{
		domain.CategoryGeneral: entries,
	}}
	retriever := newRetrieverUnderTest(3, 0, embedder, repo)

	contextSet := retriever.Retrieve(context.Background(), domain.CategoryGeneral, "q")

	assert.Len(t, contextSet.Snippets, 3)
}

func TestVectorRetrieverStaysWithinCategory(t *testing.T) {
	embedder := &mockEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	repo := &mockKnowledgeRepo{entries: map[domain.Category][]repository.KnowledgeEntry{
		domain.CategoryBilling:  {{ID: "b1", Content: "billing", Embedding: []float32{1, 0}}},
		domain.CategorySecurity: {{ID: "s1", Content: "security", Embedding: []float32{1, 0}}},
	}}
	retriever := newRetrieverUnderTest(5, 0, embedder, repo)

	contextSet := retriever.Retrieve(context.Background(), domain.CategorySecurity, "q")

	require.Len(t, contextSet.Snippets, 1)
	assert.Equal(t, "s1", contextSet.Snippets[0].ID)
}

func TestVectorRetrieverEmbedFailureDegrades(t *testing.T) {
	embedder := &mockEmbedder{err: errors.New("embedding service down")}
	retriever := newRetrieverUnderTest(5, 0, embedder, &mockKnowledgeRepo{})

	contextSet := retriever.Retrieve(context.Background(), domain.CategoryGeneral, "q")

	assert.True(t, contextSet.Degraded)
	assert.True(t, contextSet.Empty())
}

func TestVectorRetrieverRepositoryFailureDegrades(t *testing.T) {
	embedder := &mockEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	retriever := newRetrieverUnderTest(5, 0, embedder, &mockKnowledgeRepo{err: errors.New("db down")})

	contextSet := retriever.Retrieve(context.Background(), domain.CategoryGeneral, "q")

	assert.True(t, contextSet.Degraded)
	assert.True(t, contextSet.Empty())
}

func TestVectorRetrieverNoMatchesYieldsEmptyNotDegraded(t *testing.T) {
	embedder := &mockEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	retriever := newRetrieverUnderTest(5, 0.9, embedder, &mockKnowledgeRepo{entries: map[domain.Category][]repository.KnowledgeEntry{
		domain.CategoryGeneral: {{ID: "k1", Content: "far", Embedding: []float32{0, 1}}},
	}})

	contextSet := retriever.Retrieve(context.Background(), domain.CategoryGeneral, "q")

	assert.True(t, contextSet.Empty())
	assert.False(t, contextSet.Degraded, "an empty result from a healthy store is not a degradation")
}
