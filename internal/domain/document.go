package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// FileType is the extraction format of an uploaded document, derived from
// its extension.
type FileType string

const (
	FileTypePDF         FileType = "pdf"
	FileTypeText        FileType = "text"
	FileTypeMarkdown    FileType = "markdown"
	FileTypeDOCX        FileType = "docx"
	FileTypeUnsupported FileType = "unsupported"
)

// DocumentStatus tracks a document through ingestion.
type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusIndexed    DocumentStatus = "indexed"
	DocumentStatusSkipped    DocumentStatus = "skipped"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// ProcessingLease bounds how long a processing status blocks another run. A
// run that died without recording its outcome is taken over after it expires.
const ProcessingLease = 15 * time.Minute

// Document is an uploaded file. Key is the blob key and doubles as the
// source label of every chunk cut from it.
type Document struct {
	Key         string
	FileType    FileType
	ContentType string
	SizeBytes   int64
	Status      DocumentStatus
	ChunkCount  int
	Error       string
	UploadedAt  time.Time
	ProcessedAt *time.Time
	UpdatedAt   time.Time
}

// Section is one unit of extracted text. PDFs yield one section per page
// (Page is 1-based); other formats yield a single section with Page 0.
type Section struct {
	Page int
	Text string
}

// NewDocument creates a Document in the uploaded state.
func NewDocument(key, contentType string, size int64, uploadedAt time.Time) *Document {
	return &Document{
		Key:         key,
		FileType:    DetectFileType(key),
		ContentType: contentType,
		SizeBytes:   size,
		Status:      DocumentStatusUploaded,
		UploadedAt:  uploadedAt,
		UpdatedAt:   uploadedAt,
	}
}

// ProcessingActive reports whether another run holds the document at now.
func (d *Document) ProcessingActive(now time.Time) bool {
	return d.Status == DocumentStatusProcessing && now.Sub(d.UpdatedAt) < ProcessingLease
}

// DetectFileType maps a file name to its extraction format.
func DetectFileType(name string) FileType {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return FileTypePDF
	case ".txt":
		return FileTypeText
	case ".md", ".markdown":
		return FileTypeMarkdown
	case ".docx":
		return FileTypeDOCX
	default:
		return FileTypeUnsupported
	}
}

// NormalizeDocumentKey strips directories from an uploaded file name so the
// key is a flat blob name. It returns ErrInvalidDocumentKey for names that
// reduce to nothing.
func NormalizeDocumentKey(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	key := path.Base(name)
	if key == "." || key == "/" || key == ".." || key == "" {
		return "", ErrInvalidDocumentKey
	}
	return key, nil
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.Key == "" {
		return fmt.Errorf("document key is required")
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document status is invalid: %s", d.Status)
	}

	if d.SizeBytes < 0 {
		return fmt.Errorf("document size cannot be negative")
	}

	if d.ChunkCount < 0 {
		return fmt.Errorf("document chunk count cannot be negative")
	}

	return nil
}

func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusUploaded, DocumentStatusProcessing, DocumentStatusIndexed,
		DocumentStatusSkipped, DocumentStatusFailed:
		return true
	}
	return false
}
