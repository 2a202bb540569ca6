package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrCodeNotFound, "document not found")
	assert.Equal(t, "[NOT_FOUND] document not found", err.Error())

	cause := errors.New("connection reset")
	wrapped := NewDomainErrorWithCause(ErrCodeRetrieval, "failed to retrieve context", cause)
	assert.Equal(t, "[RETRIEVAL_ERROR] failed to retrieve context: connection reset", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestDomainError_IsMatchesSentinelWithCause(t *testing.T) {
	err := NewDomainErrorWithCause(ErrDocumentNotFound.Code, ErrDocumentNotFound.Message, errors.New("NoSuchKey"))

	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NotErrorIs(t, err, ErrIngestionJobNotFound)
}

func TestNewIngestionError_NamesDocument(t *testing.T) {
	err := NewIngestionError("handbook.pdf", errors.New("embedding failed"))

	assert.Equal(t, ErrCodeIngestion, err.Code)
	assert.Contains(t, err.Error(), `"handbook.pdf"`)
	assert.Contains(t, err.Error(), "embedding failed")
}

func TestErrorCode(t *testing.T) {
	gen := NewGenerationError(errors.New("boom"))
	wrapped := fmt.Errorf("chat: %w", gen)

	assert.Equal(t, ErrCodeGeneration, ErrorCode(wrapped))
	assert.Equal(t, ErrCodeRetrieval, ErrorCode(NewRetrievalError(nil)))
	assert.Equal(t, ErrCodeUpstreamUnavailable, ErrorCode(NewUpstreamUnavailableError("openai", errors.New("x"))))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.Equal(t, "", ErrorCode(nil))
}
