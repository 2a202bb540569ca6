package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/telemetry"
)

const (
	DefaultTopK = 5
	MaxTopK     = 50

	StrategyHybrid = "hybrid"
	StrategyVector = "vector"
)

// SearchStrategy ranks index entries for a query.
type SearchStrategy interface {
	Name() string
	Search(ctx context.Context, query string, embedding []float32, topK int) ([]domain.RetrievedHit, error)
}

// RetrievalResult holds ranked hits and the strategy that produced them.
// FallbackReason is set when the primary strategy failed.
type RetrievalResult struct {
	Hits           []domain.RetrievedHit
	Strategy       string
	FallbackReason error
}

// Retriever embeds the query and runs the primary strategy, falling back to
// the secondary one if the primary fails.
type Retriever struct {
	embedder EmbeddingClient
	primary  SearchStrategy
	fallback SearchStrategy
}

// NewRetriever creates a retriever with hybrid search backed by vector-only
// search.
func NewRetriever(embedder EmbeddingClient, index SearchIndex) *Retriever {
	return NewRetrieverWithStrategies(embedder, NewHybridStrategy(index), NewVectorStrategy(index))
}

func NewRetrieverWithStrategies(embedder EmbeddingClient, primary, fallback SearchStrategy) *Retriever {
	return &Retriever{
		embedder: embedder,
		primary:  primary,
		fallback: fallback,
	}
}

// Retrieve returns at most topK hits, best first. A non-positive topK uses
// DefaultTopK. An empty index yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (*RetrievalResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	ctx, span := telemetry.StartSpan(ctx, "Retriever.Retrieve", telemetry.SpanAttributes{
		Strategy:  r.primary.Name(),
		TopK:      topK,
		Operation: "retrieve",
	})
	defer span.End()

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewRetrievalError(fmt.Errorf("failed to embed query: %w", err))
	}

	hits, err := r.primary.Search(ctx, query, embedding, topK)
	if err == nil {
		return &RetrievalResult{Hits: hits, Strategy: r.primary.Name()}, nil
	}

	if r.fallback == nil || ctx.Err() != nil {
		span.SetError(err)
		return nil, domain.NewRetrievalError(err)
	}

	log.Printf("retriever: %s search failed, falling back to %s: %v", r.primary.Name(), r.fallback.Name(), err)
	telemetry.AddBreadcrumb(ctx, "retrieval", fmt.Sprintf("%s search failed: %v", r.primary.Name(), err))

	hits, fallbackErr := r.fallback.Search(ctx, query, embedding, topK)
	if fallbackErr != nil {
		joined := errors.Join(err, fallbackErr)
		span.SetError(joined)
		return nil, domain.NewRetrievalError(joined)
	}

	return &RetrievalResult{
		Hits:           hits,
		Strategy:       r.fallback.Name(),
		FallbackReason: err,
	}, nil
}
