//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRepository_ReplaceSource(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository(setupPool(ctx, t))

	require.NoError(t, repo.ReplaceSource(ctx, "policy.txt", []domain.IndexEntry{
		indexEntry("policy.txt", 0, "Employees receive 15 days of vacation.", unitVector(0)),
		indexEntry("policy.txt", 1, "Sick leave is unlimited.", unitVector(1)),
		indexEntry("policy.txt", 2, "Remote work requires approval.", unitVector(2)),
	}))
	assert.Equal(t, 3, countChunks(ctx, t, repo, "policy.txt"))

	require.NoError(t, repo.ReplaceSource(ctx, "policy.txt", []domain.IndexEntry{
		indexEntry("policy.txt", 0, "Employees receive 20 days of vacation.", unitVector(0)),
	}))
	assert.Equal(t, 1, countChunks(ctx, t, repo, "policy.txt"))
}

func TestChunkRepository_DeleteSource(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository(setupPool(ctx, t))

	require.NoError(t, repo.ReplaceSource(ctx, "a.txt", []domain.IndexEntry{
		indexEntry("a.txt", 0, "alpha", unitVector(0)),
		indexEntry("a.txt", 1, "beta", unitVector(1)),
	}))
	require.NoError(t, repo.ReplaceSource(ctx, "b.txt", []domain.IndexEntry{
		indexEntry("b.txt", 0, "gamma", unitVector(2)),
	}))

	removed, err := repo.DeleteSource(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	removed, err = repo.DeleteSource(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	assert.Equal(t, 1, countChunks(ctx, t, repo, "b.txt"))
}

func TestChunkRepository_SearchSemantic(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository(setupPool(ctx, t))

	require.NoError(t, repo.ReplaceSource(ctx, "policy.txt", []domain.IndexEntry{
		indexEntry("policy.txt", 0, "vacation", unitVector(0)),
		indexEntry("policy.txt", 1, "sick leave", unitVector(1)),
		indexEntry("policy.txt", 2, "remote work", unitVector(2)),
	}))

	hits, err := repo.SearchSemantic(ctx, unitVector(1), 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "sick leave", hits[0].Content)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Less(t, hits[1].Score, hits[0].Score)
	assert.Equal(t, domain.ChunkID("policy.txt", 1, "sick leave"), hits[0].ChunkID)
}

func TestChunkRepository_SearchLexical(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository(setupPool(ctx, t))

	require.NoError(t, repo.ReplaceSource(ctx, "policy.txt", []domain.IndexEntry{
		indexEntry("policy.txt", 0, "Employees receive 15 vacation days per year.", unitVector(0)),
		indexEntry("policy.txt", 1, "Sick leave is handled by HR.", unitVector(1)),
	}))

	hits, err := repo.SearchLexical(ctx, "vacation days", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].Position)
	assert.Greater(t, hits[0].Score, 0.0)

	none, err := repo.SearchLexical(ctx, "pension", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}
