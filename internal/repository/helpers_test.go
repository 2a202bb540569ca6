//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func setupPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)
	return pool
}

// unitVector returns a 1536-dim vector with a single hot component.
func unitVector(hot int) []float32 {
	v := make([]float32, 1536)
	v[hot] = 1
	return v
}

func indexEntry(source string, position int, content string, embedding []float32) domain.IndexEntry {
	return domain.IndexEntry{
		Chunk:     domain.NewChunk(source, position, content, 0),
		Embedding: embedding,
	}
}

func countChunks(ctx context.Context, t *testing.T, repo *ChunkRepository, source string) int {
	t.Helper()
	var count int
	err := repo.db.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks WHERE source = $1`, source).Scan(&count)
	require.NoError(t, err)
	return count
}
