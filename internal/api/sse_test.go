package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainWriter struct {
	header http.Header
}

func (p *plainWriter) Header() http.Header         { return p.header }
func (p *plainWriter) Write(b []byte) (int, error) { return len(b), nil }
func (p *plainWriter) WriteHeader(int)             {}

func TestNewSSEWriter_RequiresFlusher(t *testing.T) {
	_, err := NewSSEWriter(&plainWriter{header: http.Header{}})

	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}

func TestSSEWriter_Send(t *testing.T) {
	w := httptest.NewRecorder()
	sse, err := NewSSEWriter(w)
	require.NoError(t, err)
	assert.False(t, sse.Started())

	require.NoError(t, sse.Send(map[string]string{"type": "content", "content": "Hel"}))
	require.NoError(t, sse.Send(map[string]string{"type": "done"}))

	assert.True(t, sse.Started())
	assert.True(t, w.Flushed)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t,
		"data: {\"content\":\"Hel\",\"type\":\"content\"}\n\ndata: {\"type\":\"done\"}\n\n",
		w.Body.String(),
	)
}

func TestSSEWriter_SendUnencodable(t *testing.T) {
	w := httptest.NewRecorder()
	sse, err := NewSSEWriter(w)
	require.NoError(t, err)

	err = sse.Send(func() {})

	assert.Error(t, err)
	assert.False(t, sse.Started())
}
