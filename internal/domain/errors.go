package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code and message,
// so sentinel values keep matching after being wrapped with a cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeInvalidOperation    = "INVALID_OPERATION"
	ErrCodeIngestion           = "INGESTION_ERROR"
	ErrCodeRetrieval           = "RETRIEVAL_ERROR"
	ErrCodeGeneration          = "GENERATION_ERROR"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// Validation errors
var (
	ErrEmptyQuery                = NewDomainError(ErrCodeValidation, "query is required")
	ErrInvalidDocumentKey        = NewDomainError(ErrCodeValidation, "invalid document key")
	ErrInvalidDocumentStatus     = NewDomainError(ErrCodeValidation, "invalid document status")
	ErrInvalidIngestionJobStatus = NewDomainError(ErrCodeValidation, "invalid ingestion job status")
	ErrInvalidChunkConfig        = NewDomainError(ErrCodeValidation, "invalid chunk configuration")
	ErrMissingRequiredField      = NewDomainError(ErrCodeValidation, "missing required field")
	ErrUnsupportedFileType       = NewDomainError(ErrCodeValidation, "unsupported file type")
	ErrInvalidChatID             = NewDomainError(ErrCodeValidation, "invalid chat id")
)

// Not found errors
var (
	ErrDocumentNotFound     = NewDomainError(ErrCodeNotFound, "document not found")
	ErrIngestionJobNotFound = NewDomainError(ErrCodeNotFound, "ingestion job not found")
	ErrChatLogNotFound      = NewDomainError(ErrCodeNotFound, "chat log not found")
)

// Operation errors
var (
	ErrDocumentBusy         = NewDomainError(ErrCodeInvalidOperation, "document is already being processed")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)

// NewIngestionError reports a document that could not be loaded, chunked,
// embedded or indexed. The message always names the document.
func NewIngestionError(documentKey string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeIngestion, fmt.Sprintf("failed to ingest document %q", documentKey), err)
}

// NewRetrievalError reports that neither search strategy produced hits.
func NewRetrievalError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeRetrieval, "failed to retrieve context", err)
}

// NewGenerationError reports a failed or unusable generation call.
func NewGenerationError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeGeneration, "failed to generate answer", err)
}

// ErrUpstreamUnavailable matches any error built by NewUpstreamUnavailableError,
// however deeply it is wrapped.
var ErrUpstreamUnavailable = NewDomainError(ErrCodeUpstreamUnavailable, "upstream service unavailable")

// NewUpstreamUnavailableError reports an external dependency that kept
// failing after all retries.
func NewUpstreamUnavailableError(service string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeUpstreamUnavailable, ErrUpstreamUnavailable.Message, fmt.Errorf("%s: %w", service, err))
}

// ErrorCode extracts the code of the first DomainError in err's chain.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
