package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// lengthEmbedder encodes each text's length so order can be checked.
type lengthEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (e *lengthEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

func (e *lengthEmbedder) GenerateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.fail {
		return nil, errors.New("embedding service down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

type recordingSink struct {
	calls   int
	source  string
	entries []domain.IndexEntry
	err     error
}

func (s *recordingSink) ReplaceSource(_ context.Context, source string, entries []domain.IndexEntry) error {
	s.calls++
	s.source = source
	s.entries = entries
	return s.err
}

func makeChunks(source string, contents ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = domain.NewChunk(source, i, c, 0)
	}
	return chunks
}

func TestIndexer_Index(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds in order across batches", func(t *testing.T) {
		embedder := &lengthEmbedder{}
		ix := NewIndexer(embedder, IndexerConfig{BatchSize: 2, Concurrency: 3})
		sink := &recordingSink{}
		chunks := makeChunks("doc.txt", "a", "bb", "ccc", "dddd", "eeeee")

		n, err := ix.Index(ctx, "doc.txt", chunks, sink)

		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, 3, embedder.calls)
		assert.Equal(t, 1, sink.calls)
		assert.Equal(t, "doc.txt", sink.source)
		require.Len(t, sink.entries, 5)
		for i, e := range sink.entries {
			assert.Equal(t, chunks[i].ID, e.ID)
			assert.Equal(t, []float32{float32(i + 1)}, e.Embedding)
		}
	})

	t.Run("empty chunk list never reaches the sink", func(t *testing.T) {
		embedder := &lengthEmbedder{}
		ix := NewIndexer(embedder, DefaultIndexerConfig())
		sink := &recordingSink{}

		n, err := ix.Index(ctx, "empty.txt", nil, sink)

		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, sink.calls)
		assert.Zero(t, embedder.calls)
	})

	t.Run("embedding failure writes nothing", func(t *testing.T) {
		ix := NewIndexer(&lengthEmbedder{fail: true}, DefaultIndexerConfig())
		sink := &recordingSink{}

		_, err := ix.Index(ctx, "doc.txt", makeChunks("doc.txt", "one", "two"), sink)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to embed chunks")
		assert.Zero(t, sink.calls)
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)
		embedder.On("GenerateEmbeddings", mock.Anything, []string{"one", "two"}).
			Return([][]float32{{0.1}}, nil)
		ix := NewIndexer(embedder, DefaultIndexerConfig())
		sink := &recordingSink{}

		_, err := ix.Index(ctx, "doc.txt", makeChunks("doc.txt", "one", "two"), sink)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding count mismatch")
		assert.Zero(t, sink.calls)
		embedder.AssertExpectations(t)
	})

	t.Run("sink failure is returned", func(t *testing.T) {
		ix := NewIndexer(&lengthEmbedder{}, DefaultIndexerConfig())
		sink := &recordingSink{err: errors.New("index offline")}

		_, err := ix.Index(ctx, "doc.txt", makeChunks("doc.txt", "one"), sink)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "index offline")
	})
}

func TestNewIndexer_DefaultsInvalidConfig(t *testing.T) {
	ix := NewIndexer(&lengthEmbedder{}, IndexerConfig{})
	assert.Equal(t, DefaultIndexerConfig(), ix.cfg)
}

func TestIndexSinkFunc(t *testing.T) {
	var got string
	sink := IndexSinkFunc(func(_ context.Context, source string, _ []domain.IndexEntry) error {
		got = source
		return nil
	})

	require.NoError(t, sink.ReplaceSource(context.Background(), "a.md", nil))
	assert.Equal(t, "a.md", got)
}
