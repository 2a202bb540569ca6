package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/pagination"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentColumns = `key, file_type, content_type, size_bytes, status, chunk_count, error, uploaded_at, processed_at, updated_at`

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Upsert inserts the document or overwrites the stored record. A re-upload
// keeps the chunk count of the previous run, since its chunks stay indexed
// until the document is processed again. Moving a document into processing
// while another run holds an unexpired lease returns ErrDocumentBusy.
func (r *DocumentRepository) Upsert(ctx context.Context, d *domain.Document) error {
	if err := domain.ValidateDocument(d); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	tag, err := r.db.Exec(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (key) DO UPDATE SET
		     file_type = EXCLUDED.file_type,
		     content_type = CASE WHEN EXCLUDED.content_type = '' THEN documents.content_type ELSE EXCLUDED.content_type END,
		     size_bytes = EXCLUDED.size_bytes,
		     status = EXCLUDED.status,
		     chunk_count = CASE WHEN EXCLUDED.status = 'uploaded' THEN documents.chunk_count ELSE EXCLUDED.chunk_count END,
		     error = EXCLUDED.error,
		     uploaded_at = CASE WHEN EXCLUDED.status = 'uploaded' THEN EXCLUDED.uploaded_at ELSE documents.uploaded_at END,
		     processed_at = COALESCE(EXCLUDED.processed_at, documents.processed_at),
		     updated_at = EXCLUDED.updated_at
		 WHERE EXCLUDED.status <> 'processing'
		    OR documents.status <> 'processing'
		    OR documents.updated_at <= EXCLUDED.updated_at - make_interval(secs => $11)`,
		d.Key, d.FileType, d.ContentType, d.SizeBytes, d.Status, d.ChunkCount, nullableString(d.Error), d.UploadedAt, d.ProcessedAt, d.UpdatedAt,
		domain.ProcessingLease.Seconds(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentBusy
	}
	return nil
}

func (r *DocumentRepository) GetByKey(ctx context.Context, key string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE key = $1`, key)
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListWithCursor pages through documents, most recently updated first.
func (r *DocumentRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.DocumentPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+documentColumns+`
			 FROM documents
			 WHERE (updated_at, key) < ($1, $2)
			 ORDER BY updated_at DESC, key DESC
			 LIMIT $3`,
			cursor.UpdatedAt, cursor.Key, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+documentColumns+`
			 FROM documents
			 ORDER BY updated_at DESC, key DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.Cursor{Key: last.Key, UpdatedAt: last.UpdatedAt}.Encode()
	}

	return &service.DocumentPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// MarkProcessed records a finished ingestion run and clears any earlier error.
func (r *DocumentRepository) MarkProcessed(ctx context.Context, key string, status domain.DocumentStatus, chunkCount int) error {
	now := time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents
		 SET status = $1, chunk_count = $2, error = NULL, processed_at = $3, updated_at = $3
		 WHERE key = $4`,
		status, chunkCount, now, key,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) MarkFailed(ctx context.Context, key string, errMsg string) error {
	now := time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents
		 SET status = $1, error = $2, processed_at = $3, updated_at = $3
		 WHERE key = $4`,
		domain.DocumentStatusFailed, errMsg, now, key,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, key string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	var errMsg *string
	err := row.Scan(&d.Key, &d.FileType, &d.ContentType, &d.SizeBytes, &d.Status, &d.ChunkCount, &errMsg, &d.UploadedAt, &d.ProcessedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Error = derefString(errMsg)
	return &d, nil
}
