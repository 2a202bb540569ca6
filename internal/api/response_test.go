package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_WritesFilesListing(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]interface{}{"files": []string{"a.pdf", "b.txt"}, "count": 2})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"files":["a.pdf","b.txt"],"count":2}`, w.Body.String())
}

func TestJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusCreated, map[string]string{"blob": "policy.txt"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var result SuccessResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "policy.txt", data["blob"])
}

func TestError_OmitsEmptyCode(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusRequestEntityTooLarge, "request body exceeds 4 bytes")

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"request body exceeds 4 bytes"}`, w.Body.String())
}

func TestDomainErrorToHTTP(t *testing.T) {
	upstream := domain.NewUpstreamUnavailableError("openai", errors.New("503"))

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation error", domain.ErrEmptyQuery, http.StatusBadRequest},
		{"not found error", domain.ErrDocumentNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", domain.ErrDocumentNotFound), http.StatusNotFound},
		{"already exists error", domain.NewDomainError(domain.ErrCodeAlreadyExists, "exists"), http.StatusConflict},
		{"invalid operation", domain.ErrDocumentBusy, http.StatusBadRequest},
		{"ingestion error", domain.NewIngestionError("a.pdf", errors.New("bad pdf")), http.StatusUnprocessableEntity},
		{"retrieval error", domain.NewRetrievalError(errors.New("down")), http.StatusBadGateway},
		{"generation error", domain.NewGenerationError(errors.New("empty")), http.StatusBadGateway},
		{"upstream unavailable", upstream, http.StatusServiceUnavailable},
		{"generation wrapping exhausted retries", domain.NewGenerationError(upstream), http.StatusServiceUnavailable},
		{"internal error", domain.ErrStorageOperationFail, http.StatusInternalServerError},
		{"unknown domain error", domain.NewDomainError("UNKNOWN", "unknown"), http.StatusInternalServerError},
		{"non-domain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError_IncludesCode(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, fmt.Errorf("status: %w", domain.ErrDocumentNotFound))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "not found")
	assert.Equal(t, domain.ErrCodeNotFound, body.Code)
}

func TestHandleError_PlainErrorHasNoCode(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "connection reset", body.Error)
	assert.Empty(t, body.Code)
}
