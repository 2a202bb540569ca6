package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	now := time.Now()
	doc := NewDocument("handbook.pdf", "application/pdf", 2048, now)

	assert.Equal(t, "handbook.pdf", doc.Key)
	assert.Equal(t, FileTypePDF, doc.FileType)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, int64(2048), doc.SizeBytes)
	assert.Equal(t, DocumentStatusUploaded, doc.Status)
	assert.Equal(t, now, doc.UploadedAt)
	assert.Equal(t, now, doc.UpdatedAt)
	assert.Nil(t, doc.ProcessedAt)
}

func TestDocument_ProcessingActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  DocumentStatus
		updated time.Time
		want    bool
	}{
		{"fresh run", DocumentStatusProcessing, now.Add(-time.Minute), true},
		{"expired lease", DocumentStatusProcessing, now.Add(-ProcessingLease), false},
		{"indexed", DocumentStatusIndexed, now, false},
		{"failed", DocumentStatusFailed, now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Key: "a.txt", Status: tt.status, UpdatedAt: tt.updated}
			assert.Equal(t, tt.want, doc.ProcessingActive(now))
		})
	}
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name     string
		expected FileType
	}{
		{"report.pdf", FileTypePDF},
		{"REPORT.PDF", FileTypePDF},
		{"notes.txt", FileTypeText},
		{"README.md", FileTypeMarkdown},
		{"guide.markdown", FileTypeMarkdown},
		{"policy.docx", FileTypeDOCX},
		{"sheet.xlsx", FileTypeUnsupported},
		{"noextension", FileTypeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFileType(tt.name))
		})
	}
}

func TestNormalizeDocumentKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "policy.pdf", "policy.pdf", false},
		{"unix path", "docs/hr/policy.pdf", "policy.pdf", false},
		{"windows path", `C:\Users\me\policy.pdf`, "policy.pdf", false},
		{"trims space", "  policy.pdf  ", "policy.pdf", false},
		{"empty", "", "", true},
		{"dot dot", "..", "", true},
		{"root", "/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := NormalizeDocumentKey(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDocumentKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestValidateDocument(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		doc     *Document
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid",
			doc:     NewDocument("a.txt", "text/plain", 10, now),
			wantErr: false,
		},
		{
			name:    "nil",
			doc:     nil,
			wantErr: true,
			errMsg:  "document cannot be nil",
		},
		{
			name:    "missing key",
			doc:     &Document{Status: DocumentStatusUploaded},
			wantErr: true,
			errMsg:  "document key is required",
		},
		{
			name:    "bad status",
			doc:     &Document{Key: "a.txt", Status: "archived"},
			wantErr: true,
			errMsg:  "document status is invalid",
		},
		{
			name:    "negative size",
			doc:     &Document{Key: "a.txt", Status: DocumentStatusIndexed, SizeBytes: -1},
			wantErr: true,
			errMsg:  "document size cannot be negative",
		},
		{
			name:    "negative chunk count",
			doc:     &Document{Key: "a.txt", Status: DocumentStatusIndexed, ChunkCount: -2},
			wantErr: true,
			errMsg:  "document chunk count cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
