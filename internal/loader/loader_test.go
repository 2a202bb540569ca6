package loader

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestDOCX builds a minimal DOCX archive in memory.
func createTestDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	ct, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Vacation Policy</w:t></w:r></w:p>
    <w:p><w:r><w:t>Employees receive </w:t></w:r><w:r><w:t>15 days</w:t></w:r><w:r><w:t> of vacation.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtract_PlainText(t *testing.T) {
	e := New()

	sections, err := e.Extract("policy.txt", []byte("\ufeffLine one\r\nLine two"))

	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "Line one\nLine two", sections[0].Text)
	assert.Equal(t, 0, sections[0].Page)
}

func TestExtract_Markdown(t *testing.T) {
	sections, err := New().Extract("README.MD", []byte("# Title\n\nBody"))

	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "# Title\n\nBody", sections[0].Text)
}

func TestExtract_EmptyText(t *testing.T) {
	sections, err := New().Extract("empty.txt", []byte(" \n\t"))

	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestExtract_InvalidUTF8IsDropped(t *testing.T) {
	sections, err := New().Extract("bytes.txt", []byte{'o', 'k', 0xff, '!'})

	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "ok!", sections[0].Text)
}

func TestExtract_DOCX(t *testing.T) {
	data := createTestDOCX(t, sampleDocumentXML)

	sections, err := New().Extract("policy.docx", data)

	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "Vacation Policy\nEmployees receive 15 days of vacation.", sections[0].Text)
}

func TestExtract_DOCXMissingBody(t *testing.T) {
	data := createTestDOCX(t, "")

	_, err := New().Extract("hollow.docx", data)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml not found")
}

func TestExtract_DOCXNotAZip(t *testing.T) {
	_, err := New().Extract("fake.docx", []byte("plain text pretending"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open docx")
}

func TestExtract_InvalidPDF(t *testing.T) {
	_, err := New().Extract("broken.pdf", []byte("this is not a pdf"))

	require.Error(t, err)
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := New().Extract("photo.png", []byte{0x89, 'P', 'N', 'G'})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.Contains(t, err.Error(), "photo.png")
}
