package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultEmbeddingBatchSize   = 16
	DefaultEmbeddingConcurrency = 4
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexSink receives the embedded chunks of one source. ReplaceSource must
// leave exactly the given entries for source in the index: stale entries
// from an earlier ingestion are removed and re-ingesting the same content
// yields the same IDs.
type IndexSink interface {
	ReplaceSource(ctx context.Context, source string, entries []domain.IndexEntry) error
}

// IndexSinkFunc adapts a function to IndexSink.
type IndexSinkFunc func(ctx context.Context, source string, entries []domain.IndexEntry) error

func (f IndexSinkFunc) ReplaceSource(ctx context.Context, source string, entries []domain.IndexEntry) error {
	return f(ctx, source, entries)
}

// IndexerConfig controls embedding fan-out.
type IndexerConfig struct {
	BatchSize   int
	Concurrency int
}

func DefaultIndexerConfig() IndexerConfig {
	return IndexerConfig{
		BatchSize:   DefaultEmbeddingBatchSize,
		Concurrency: DefaultEmbeddingConcurrency,
	}
}

// Indexer embeds chunks and hands them to an IndexSink.
type Indexer struct {
	embedder EmbeddingClient
	cfg      IndexerConfig
}

func NewIndexer(embedder EmbeddingClient, cfg IndexerConfig) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEmbeddingBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultEmbeddingConcurrency
	}
	return &Indexer{embedder: embedder, cfg: cfg}
}

// Index embeds every chunk of source and writes them to sink in a single
// call. Nothing is written when any embedding fails, and an empty chunk list
// never reaches the sink.
func (ix *Indexer) Index(ctx context.Context, source string, chunks []domain.Chunk, sink IndexSink) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "Indexer.Index", telemetry.SpanAttributes{
		DocumentKey: source,
		Operation:   "index",
	})
	defer span.End()

	entries, err := ix.Embed(ctx, chunks)
	if err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	if err := sink.ReplaceSource(ctx, source, entries); err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("failed to write index entries: %w", err)
	}

	return len(entries), nil
}

// Embed computes one embedding per chunk, batching requests and running up
// to Concurrency batches at once. The result is in chunk order.
func (ix *Indexer) Embed(ctx context.Context, chunks []domain.Chunk) ([]domain.IndexEntry, error) {
	entries := make([]domain.IndexEntry, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Concurrency)

	for start := 0; start < len(chunks); start += ix.cfg.BatchSize {
		end := min(start+ix.cfg.BatchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Content)
			}

			vectors, err := ix.embedder.GenerateEmbeddings(gctx, texts)
			if err != nil {
				return err
			}
			if len(vectors) != len(texts) {
				return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
			}

			for i, v := range vectors {
				entries[start+i] = domain.IndexEntry{Chunk: chunks[start+i], Embedding: v}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
