package repository

import (
	"context"
	"time"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence of chunk embeddings and their full-text index.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceSource deletes existing chunks for a source and inserts entries in one batch.
// Callers wanting all-or-nothing semantics run it inside a transaction.
func (r *ChunkRepository) ReplaceSource(ctx context.Context, source string, entries []domain.IndexEntry) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE source = $1`, source); err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	createdAt := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, e := range entries {
		metadata := e.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		batch.Queue(
			`INSERT INTO document_chunks (id, source, position, page, content, metadata, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, source, e.Position, e.Page, e.Content, metadata, pgvector.NewVector(e.Embedding), createdAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

// DeleteSource removes every chunk of a source and reports how many were removed.
func (r *ChunkRepository) DeleteSource(ctx context.Context, source string) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE source = $1`, source)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// SearchSemantic returns the chunks closest to embedding by cosine distance.
// Score is 1/(1+distance), so closer chunks score higher.
func (r *ChunkRepository) SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievedHit, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, source, position, page, content, 1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM document_chunks
		 ORDER BY embedding <=> $1, source, position
		 LIMIT $2`,
		pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHits(rows)
}

// SearchLexical ranks chunks matching query with ts_rank_cd over the
// generated search_vector column.
func (r *ChunkRepository) SearchLexical(ctx context.Context, query string, limit int) ([]domain.RetrievedHit, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, source, position, page, content, ts_rank_cd(search_vector, q)::double precision AS score
		 FROM document_chunks, websearch_to_tsquery('english', $1) AS q
		 WHERE search_vector @@ q
		 ORDER BY score DESC, source, position
		 LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHits(rows)
}

func scanHits(rows pgx.Rows) ([]domain.RetrievedHit, error) {
	var hits []domain.RetrievedHit
	for rows.Next() {
		var h domain.RetrievedHit
		if err := rows.Scan(&h.ChunkID, &h.Source, &h.Position, &h.Page, &h.Content, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
