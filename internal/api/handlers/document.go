package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloo-solutions/docchat/internal/api"
	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/pagination"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	defaultDocumentsLimit = 20
	maxDocumentsLimit     = 100

	// multipart parts above this size are spooled to disk
	multipartMemory = 32 << 20
)

type DocumentService interface {
	Upload(ctx context.Context, input service.UploadInput) (*domain.Document, error)
	ListFiles(ctx context.Context) ([]string, error)
	ListDocuments(ctx context.Context, input service.ListDocumentsInput) (*pagination.PageResult[*domain.Document], error)
	GetDocument(ctx context.Context, key string) (*domain.Document, error)
	Process(ctx context.Context, key string) (*service.ProcessResult, error)
	Enqueue(ctx context.Context, key string) (*domain.IngestionJob, error)
	Delete(ctx context.Context, key string) error
}

// JobTrigger wakes the background ingestion worker after a job is queued.
type JobTrigger interface {
	Trigger()
}

type DocumentHandler struct {
	svc     DocumentService
	trigger JobTrigger
}

// NewDocumentHandler creates a DocumentHandler. trigger may be nil, in which
// case queued jobs wait for the worker's next poll.
func NewDocumentHandler(svc DocumentService, trigger JobTrigger) *DocumentHandler {
	return &DocumentHandler{svc: svc, trigger: trigger}
}

type FilesResponse struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

type UploadedFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	FileType string `json:"file_type"`
	Size     int64  `json:"size"`
}

type UploadResponse struct {
	Uploaded []UploadedFile `json:"uploaded"`
	Message  string         `json:"message"`
}

type DocumentResponse struct {
	Key         string `json:"key"`
	FileType    string `json:"file_type"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	Status      string `json:"status"`
	ChunkCount  int    `json:"chunk_count"`
	Error       string `json:"error,omitempty"`
	UploadedAt  string `json:"uploaded_at"`
	ProcessedAt string `json:"processed_at,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type JobResponse struct {
	ID          string `json:"id"`
	DocumentKey string `json:"document_key"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	resp := &DocumentResponse{
		Key:         d.Key,
		FileType:    string(d.FileType),
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		Status:      string(d.Status),
		ChunkCount:  d.ChunkCount,
		Error:       d.Error,
		UploadedAt:  d.UploadedAt.Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.Format(time.RFC3339),
	}
	if d.ProcessedAt != nil {
		resp.ProcessedAt = d.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

func jobToResponse(j *domain.IngestionJob) *JobResponse {
	return &JobResponse{
		ID:          j.ID,
		DocumentKey: j.DocumentKey,
		Status:      string(j.Status),
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
	}
}

func (h *DocumentHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.ListFiles(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if files == nil {
		files = []string{}
	}

	api.Success(w, http.StatusOK, FilesResponse{Files: files, Count: len(files)})
}

// Upload stores every part of the multipart "files" field.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		api.Error(w, http.StatusBadRequest, "files are required")
		return
	}

	uploaded := make([]UploadedFile, 0, len(parts))
	for _, part := range parts {
		doc, err := h.uploadPart(r.Context(), part)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		uploaded = append(uploaded, UploadedFile{
			Name:     doc.Key,
			Path:     doc.Key,
			FileType: string(doc.FileType),
			Size:     doc.SizeBytes,
		})
	}

	api.Success(w, http.StatusCreated, UploadResponse{
		Uploaded: uploaded,
		Message:  fmt.Sprintf("Uploaded %d file(s)", len(uploaded)),
	})
}

func (h *DocumentHandler) uploadPart(ctx context.Context, part *multipart.FileHeader) (*domain.Document, error) {
	f, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", part.Filename, err)
	}
	defer f.Close()

	return h.svc.Upload(ctx, service.UploadInput{
		Filename:    part.Filename,
		ContentType: part.Header.Get("Content-Type"),
		Size:        part.Size,
		Body:        f,
	})
}

// Process indexes ?blob=<key>. With async=true it only queues an ingestion
// job and answers 202.
func (h *DocumentHandler) Process(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("blob")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "blob is required")
		return
	}

	async := false
	if raw := r.URL.Query().Get("async"); raw != "" {
		var err error
		async, err = strconv.ParseBool(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "async must be a boolean")
			return
		}
	}

	if async {
		job, err := h.svc.Enqueue(r.Context(), key)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		if h.trigger != nil {
			h.trigger.Trigger()
		}
		api.Success(w, http.StatusAccepted, jobToResponse(job))
		return
	}

	result, err := h.svc.Process(r.Context(), key)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.svc.ListDocuments(r.Context(), service.ListDocumentsInput{
		Limit:  pagination.ParseLimit(query.Get("limit"), defaultDocumentsLimit, maxDocumentsLimit),
		Cursor: query.Get("cursor"),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, 0, len(page.Items))
	for _, d := range page.Items {
		items = append(items, documentToResponse(d))
	}

	api.Success(w, http.StatusOK, pagination.PageResult[*DocumentResponse]{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetDocument(r.Context(), documentKey(r))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := documentKey(r)
	if key == "" {
		api.Error(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := h.svc.Delete(r.Context(), key); err != nil {
		api.HandleError(w, err)
		return
	}

	log.Printf("documents: deleted %s", key)
	w.WriteHeader(http.StatusNoContent)
}

// documentKey reads the {key} route parameter, which chi leaves escaped
// when the request path carried encoded characters.
func documentKey(r *http.Request) string {
	raw := chi.URLParam(r, "key")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}
