package provider

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GenAIEmbedder generates embeddings using Google's Gemini API. Every call is
// bounded by the configured timeout so retrieval cannot stall on the provider.
type GenAIEmbedder struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIEmbedder creates an embedding engine for the given model.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string, timeout time.Duration) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model, timeout: timeout}, nil
}

// Embed generates an embedding for a single text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (e *GenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	cctx, cancel := e.callCtx(ctx)
	defer cancel()

	result, err := e.client.Models.EmbedContent(cctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"},
	)
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// callCtx derives the per-call context. A non-positive timeout leaves the
// caller's context untouched.
func (e *GenAIEmbedder) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}
