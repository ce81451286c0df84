package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-resolver/internal/cache"
	"github.com/spec-kit/ticket-resolver/internal/domain"
	"github.com/spec-kit/ticket-resolver/internal/observability"
	"github.com/spec-kit/ticket-resolver/internal/provider"
	"github.com/spec-kit/ticket-resolver/internal/repository"
)

// Retriever returns relevance-ranked knowledge context for a category-scoped
// query. Implementations never fail the caller: a provider failure yields an
// empty, degraded ContextSet and the pipeline proceeds to drafting.
type Retriever interface {
	Retrieve(ctx context.Context, category domain.Category, query string) domain.ContextSet
}

// VectorRetriever embeds the query and ranks the category's knowledge
// snippets by cosine similarity.
type VectorRetriever struct {
	embedder  provider.Embedder
	cache     *cache.EmbeddingCache
	knowledge repository.KnowledgeRepository
	topK      int
	minScore  float64
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// VectorRetrieverDependencies bundles retriever collaborators.
type VectorRetrieverDependencies struct {
	Embedder  provider.Embedder
	Cache     *cache.EmbeddingCache
	Knowledge repository.KnowledgeRepository
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// NewVectorRetriever constructs the retriever.
func NewVectorRetriever(topK int, minScore float64, deps VectorRetrieverDependencies) *VectorRetriever {
	if topK <= 0 {
		topK = 5
	}
	return &VectorRetriever{
		embedder:  deps.Embedder,
		cache:     deps.Cache,
		knowledge: deps.Knowledge,
		topK:      topK,
		minScore:  minScore,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

// Retrieve returns the top-K snippets for the query within the category.
func (r *VectorRetriever) Retrieve(ctx context.Context, category domain.Category, query string) domain.ContextSet {
	vector, cached := r.cache.Get(ctx, query)
	if !cached {
		embedded, err := r.embedder.Embed(ctx, query)
		if err != nil {
			return r.degraded(category, query, err)
		}
		vector = embedded
		r.cache.Set(ctx, query, vector)
	}

	entries, err := r.knowledge.ListByCategory(ctx, category)
	if err != nil {
		return r.degraded(category, query, err)
	}

	snippets := make([]domain.Snippet, 0, len(entries))
	for _, entry := range entries {
		score := cosineSimilarity(vector, entry.Embedding)
		if score < r.minScore {
			continue
		}
		snippets = append(snippets, domain.Snippet{
			ID:      entry.ID,
			Content: entry.Content,
			Score:   score,
		})
	}
	sort.Slice(snippets, func(i, j int) bool { return snippets[i].Score > snippets[j].Score })
	if len(snippets) > r.topK {
		snippets = snippets[:r.topK]
	}
	return domain.ContextSet{Snippets: snippets}
}

func (r *VectorRetriever) degraded(category domain.Category, query string, err error) domain.ContextSet {
	r.logger.Warn("retrieval degraded to empty context",
		zap.String("category", string(category)),
		zap.String("query", query),
		zap.Error(fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)))
	r.metrics.RecordFallback(StepRetrieval)
	return domain.ContextSet{Degraded: true}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
