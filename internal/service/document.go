package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/pagination"
	"github.com/cloo-solutions/docchat/internal/telemetry"
	"github.com/google/uuid"
)

// NoChunksMessage is reported when a document produced no indexable text.
const NoChunksMessage = "No chunks created - file may be empty or unsupported format"

const defaultDocumentPageSize = 20

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// BlobStore holds the raw uploaded files. GetObject and StatObject return
// domain.ErrDocumentNotFound for unknown keys.
type BlobStore interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	StatObject(ctx context.Context, key string) (*BlobInfo, error)
	ListObjects(ctx context.Context) ([]BlobInfo, error)
	DeleteObject(ctx context.Context, key string) error
}

// TextExtractor turns file bytes into sections of plain text. It returns
// domain.ErrUnsupportedFileType for formats it cannot read.
type TextExtractor interface {
	Extract(name string, data []byte) ([]domain.Section, error)
}

// DocumentRepositoryInterface defines persistence for the document registry
type DocumentRepositoryInterface interface {
	Upsert(ctx context.Context, doc *domain.Document) error
	GetByKey(ctx context.Context, key string) (*domain.Document, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error)
	MarkProcessed(ctx context.Context, key string, status domain.DocumentStatus, chunkCount int) error
	MarkFailed(ctx context.Context, key string, errMsg string) error
	Delete(ctx context.Context, key string) error
}

// DocumentPageResult is one page of the document registry.
type DocumentPageResult struct {
	Items      []*domain.Document
	NextCursor string
	HasMore    bool
}

// ChunkRepositoryInterface defines the write side of the chunk index
type ChunkRepositoryInterface interface {
	ReplaceSource(ctx context.Context, source string, entries []domain.IndexEntry) error
	DeleteSource(ctx context.Context, source string) (int64, error)
}

// IngestionJobRepositoryInterface defines persistence for queued ingestion
type IngestionJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestionJob) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// UploadInput is one file to store.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProcessResult reports the outcome of ingesting one document.
type ProcessResult struct {
	Blob          string `json:"blob"`
	Chunks        int    `json:"chunks"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Message       string `json:"message"`
}

// ListDocumentsInput represents input for listing the registry
type ListDocumentsInput struct {
	Limit  int
	Cursor string
}

// DocumentService stores uploaded files and runs the ingestion pipeline:
// load, chunk, embed and index.
type DocumentService struct {
	blobs     BlobStore
	extractor TextExtractor
	chunker   *Chunker
	indexer   *Indexer
	docs      DocumentRepositoryInterface
	txRunner  TxRunner
	uuidGen   UUIDGenerator
	now       func() time.Time
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(
	blobs BlobStore,
	extractor TextExtractor,
	chunker *Chunker,
	indexer *Indexer,
	docs DocumentRepositoryInterface,
	txRunner TxRunner,
) *DocumentService {
	return &DocumentService{
		blobs:     blobs,
		extractor: extractor,
		chunker:   chunker,
		indexer:   indexer,
		docs:      docs,
		txRunner:  txRunner,
		uuidGen:   &DefaultUUIDGenerator{},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores a file under its base name and registers it. Uploading an
// existing name overwrites the blob; the index keeps the old chunks until
// the document is processed again.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*domain.Document, error) {
	key, err := domain.NormalizeDocumentKey(input.Filename)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Upload", telemetry.SpanAttributes{
		DocumentKey: key,
		Operation:   "upload",
	})
	defer span.End()

	if err := s.blobs.PutObject(ctx, key, input.Body, input.Size, input.ContentType); err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrStorageOperationFail.Code, domain.ErrStorageOperationFail.Message, err)
	}

	doc := domain.NewDocument(key, input.ContentType, input.Size, s.now())
	if err := s.docs.Upsert(ctx, doc); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to register document: %w", err)
	}

	return doc, nil
}

// ListFiles returns the keys in the blob store.
func (s *DocumentService) ListFiles(ctx context.Context) ([]string, error) {
	objects, err := s.blobs.ListObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	return keys, nil
}

// ListDocuments pages through the registry, most recently updated first.
func (s *DocumentService) ListDocuments(ctx context.Context, input ListDocumentsInput) (*pagination.PageResult[*domain.Document], error) {
	cursor, err := pagination.Decode(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultDocumentPageSize
	}

	result, err := s.docs.ListWithCursor(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &pagination.PageResult[*domain.Document]{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// GetDocument returns the registry entry for key.
func (s *DocumentService) GetDocument(ctx context.Context, key string) (*domain.Document, error) {
	return s.docs.GetByKey(ctx, key)
}

// Process ingests the stored blob key. Re-processing replaces every chunk
// previously indexed for the key. A document that yields no text is marked
// skipped and reported with NoChunksMessage, not as an error.
func (s *DocumentService) Process(ctx context.Context, key string) (*ProcessResult, error) {
	if strings.TrimSpace(key) == "" {
		return nil, domain.ErrMissingRequiredField
	}

	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Process", telemetry.SpanAttributes{
		DocumentKey: key,
		Operation:   "process",
	})
	defer span.End()

	data, err := s.blobs.GetObject(ctx, key)
	if err != nil {
		span.SetError(err)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, err
		}
		return nil, domain.NewIngestionError(key, fmt.Errorf("failed to download blob: %w", err))
	}

	if err := s.markProcessing(ctx, key, int64(len(data))); err != nil {
		span.SetError(err)
		return nil, err
	}

	sections, err := s.extractor.Extract(key, data)
	if errors.Is(err, domain.ErrUnsupportedFileType) {
		log.Printf("documents: %s has an unsupported file type, skipping", key)
		sections = nil
	} else if err != nil {
		return nil, s.fail(ctx, span, key, fmt.Errorf("failed to extract text: %w", err))
	}

	chunks := s.chunker.SplitSections(key, sections)
	if len(chunks) == 0 {
		if err := s.replaceIndexed(ctx, key, nil, domain.DocumentStatusSkipped); err != nil {
			return nil, s.fail(ctx, span, key, err)
		}
		return &ProcessResult{Blob: key, Message: NoChunksMessage}, nil
	}

	indexed, err := s.indexer.Index(ctx, key, chunks, IndexSinkFunc(func(ctx context.Context, source string, entries []domain.IndexEntry) error {
		return s.replaceIndexed(ctx, source, entries, domain.DocumentStatusIndexed)
	}))
	if err != nil {
		return nil, s.fail(ctx, span, key, err)
	}

	log.Printf("documents: indexed %d chunks for %s", indexed, key)
	return &ProcessResult{
		Blob:          key,
		Chunks:        len(chunks),
		ChunksIndexed: indexed,
		Message:       fmt.Sprintf("Successfully processed and indexed %d chunks", indexed),
	}, nil
}

// Enqueue schedules key for background processing. The blob must exist.
func (s *DocumentService) Enqueue(ctx context.Context, key string) (*domain.IngestionJob, error) {
	if strings.TrimSpace(key) == "" {
		return nil, domain.ErrMissingRequiredField
	}

	info, err := s.blobs.StatObject(ctx, key)
	if err != nil {
		return nil, err
	}

	job := domain.NewIngestionJob(s.uuidGen.NewString(), key, s.now())
	if err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		_, err := repos.Documents().GetByKey(ctx, key)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			doc := domain.NewDocument(key, info.ContentType, info.Size, s.now())
			if err := repos.Documents().Upsert(ctx, doc); err != nil {
				return fmt.Errorf("failed to register document: %w", err)
			}
		} else if err != nil {
			return err
		}

		if err := repos.IngestionJobs().Create(ctx, job); err != nil {
			return fmt.Errorf("failed to create ingestion job: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return job, nil
}

// Delete removes the blob, its index entries and its registry record.
func (s *DocumentService) Delete(ctx context.Context, key string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		DocumentKey: key,
		Operation:   "delete",
	})
	defer span.End()

	_, docErr := s.docs.GetByKey(ctx, key)
	if docErr != nil && !errors.Is(docErr, domain.ErrDocumentNotFound) {
		return docErr
	}
	if errors.Is(docErr, domain.ErrDocumentNotFound) {
		// blobs uploaded around the API have no registry record
		if _, err := s.blobs.StatObject(ctx, key); err != nil {
			return err
		}
	}

	if err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if _, err := repos.Chunks().DeleteSource(ctx, key); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
		if docErr == nil {
			if err := repos.Documents().Delete(ctx, key); err != nil {
				return fmt.Errorf("failed to delete document record: %w", err)
			}
		}
		return nil
	}); err != nil {
		span.SetError(err)
		return err
	}

	if err := s.blobs.DeleteObject(ctx, key); err != nil {
		span.SetError(err)
		return domain.NewDomainErrorWithCause(domain.ErrStorageOperationFail.Code, domain.ErrStorageOperationFail.Message, err)
	}
	return nil
}

// markProcessing claims key for this run. A document another run is still
// processing yields ErrDocumentBusy; the repository repeats the check atomically.
func (s *DocumentService) markProcessing(ctx context.Context, key string, size int64) error {
	doc, err := s.docs.GetByKey(ctx, key)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		doc = domain.NewDocument(key, "", size, s.now())
	} else if err != nil {
		return err
	} else if doc.ProcessingActive(s.now()) {
		return domain.ErrDocumentBusy
	}

	doc.Status = domain.DocumentStatusProcessing
	doc.SizeBytes = size
	doc.Error = ""
	doc.UpdatedAt = s.now()
	if err := s.docs.Upsert(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrDocumentBusy) {
			return err
		}
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return nil
}

func (s *DocumentService) replaceIndexed(ctx context.Context, key string, entries []domain.IndexEntry, status domain.DocumentStatus) error {
	return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Chunks().ReplaceSource(ctx, key, entries); err != nil {
			return fmt.Errorf("failed to replace chunks: %w", err)
		}
		return repos.Documents().MarkProcessed(ctx, key, status, len(entries))
	})
}

func (s *DocumentService) fail(ctx context.Context, span *telemetry.Span, key string, cause error) error {
	span.SetError(cause)
	if err := s.docs.MarkFailed(ctx, key, cause.Error()); err != nil {
		log.Printf("documents: failed to mark %s as failed: %v", key, err)
	}
	return domain.NewIngestionError(key, cause)
}
