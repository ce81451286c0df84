package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/ticket-resolver/internal/domain"
	"github.com/spec-kit/ticket-resolver/internal/provider"
	"github.com/spec-kit/ticket-resolver/internal/repository"
)

// ingestConcurrency bounds parallel snippet inserts.
const ingestConcurrency = 8

// KnowledgeIngestService loads knowledge snippets into the category-scoped
// store, embedding them in batch.
type KnowledgeIngestService struct {
	embedder  provider.Embedder
	knowledge repository.KnowledgeRepository
	logger    *zap.Logger
}

// NewKnowledgeIngestService constructs the service.
func NewKnowledgeIngestService(embedder provider.Embedder, knowledge repository.KnowledgeRepository, logger *zap.Logger) *KnowledgeIngestService {
	return &KnowledgeIngestService{embedder: embedder, knowledge: knowledge, logger: logger}
}

// SnippetInput is one knowledge passage to store.
type SnippetInput struct {
	Category domain.Category
	Content  string
}

// Ingest embeds and persists the snippets, returning how many were stored.
// Unlike the resolution pipeline, ingestion fails hard: a partially embedded
// knowledge base is worse than a retried load.
func (s *KnowledgeIngestService) Ingest(ctx context.Context, inputs []SnippetInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	texts := make([]string, 0, len(inputs))
	for i, input := range inputs {
		if _, ok := domain.ParseCategory(string(input.Category)); !ok {
			return 0, fmt.Errorf("snippet %d: unknown category %q", i, input.Category)
		}
		if strings.TrimSpace(input.Content) == "" {
			return 0, errors.New("snippet content must not be empty")
		}
		texts = append(texts, input.Content)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed snippets: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestConcurrency)
	for i := range inputs {
		i := i
		g.Go(func() error {
			entry := &repository.KnowledgeEntry{
				ID:        uuid.NewString(),
				Category:  inputs[i].Category,
				Content:   strings.TrimSpace(inputs[i].Content),
				Embedding: vectors[i],
			}
			return s.knowledge.Create(gctx, entry)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("store snippets: %w", err)
	}

	s.logger.Info("knowledge snippets ingested", zap.Int("count", len(inputs)))
	return len(inputs), nil
}
