// Package api holds the JSON envelope shared by every docchat handler.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cloo-solutions/docchat/internal/domain"
)

// SuccessResponse is the {"data": ...} envelope.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse carries the message and, for domain errors, the error code the
// CLI branches on.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var statusByCode = map[string]int{
	domain.ErrCodeValidation:          http.StatusBadRequest,
	domain.ErrCodeInvalidOperation:    http.StatusBadRequest,
	domain.ErrCodeNotFound:            http.StatusNotFound,
	domain.ErrCodeAlreadyExists:       http.StatusConflict,
	domain.ErrCodeIngestion:           http.StatusUnprocessableEntity,
	domain.ErrCodeRetrieval:           http.StatusBadGateway,
	domain.ErrCodeGeneration:          http.StatusBadGateway,
	domain.ErrCodeUpstreamUnavailable: http.StatusServiceUnavailable,
}

// JSON writes data with the given status. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DomainErrorToHTTP picks the status for err. Exhausted upstream retries
// report 503 even when a retrieval or generation error wraps them; errors that
// are not domain errors are 500.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, domain.ErrUpstreamUnavailable) {
		return http.StatusServiceUnavailable
	}

	var de *domain.DomainError
	if errors.As(err, &de) {
		if status, ok := statusByCode[de.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// HandleError writes err as an ErrorResponse and logs it when it is a server fault.
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)
	if status >= http.StatusInternalServerError {
		log.Printf("api: %d: %v", status, err)
	}
	JSON(w, status, ErrorResponse{Error: err.Error(), Code: domain.ErrorCode(err)})
}
