// Package loader extracts plain text from uploaded documents.
package loader

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/docchat/internal/domain"
)

// Extractor dispatches on the file extension of the document name.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the text sections of a document. PDFs yield one section
// per page; other formats a single section. Unknown extensions return
// domain.ErrUnsupportedFileType.
func (e *Extractor) Extract(name string, data []byte) ([]domain.Section, error) {
	switch domain.DetectFileType(name) {
	case domain.FileTypePDF:
		return extractPDF(data)
	case domain.FileTypeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return nil, err
		}
		return singleSection(text), nil
	case domain.FileTypeText, domain.FileTypeMarkdown:
		return singleSection(decodeText(data)), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, name)
	}
}

func singleSection(text string) []domain.Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []domain.Section{{Text: text}}
}

func decodeText(data []byte) string {
	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ToValidUTF8(text, "")
	return strings.ReplaceAll(text, "\r\n", "\n")
}
