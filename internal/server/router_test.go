package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/cloo-solutions/docchat/internal/api/handlers"
	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/pagination"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, input service.UploadInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) ListFiles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDocumentService) ListDocuments(ctx context.Context, input service.ListDocumentsInput) (*pagination.PageResult[*domain.Document], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.Document]), args.Error(1)
}

func (m *MockDocumentService) GetDocument(ctx context.Context, key string) (*domain.Document, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) Process(ctx context.Context, key string) (*service.ProcessResult, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessResult), args.Error(1)
}

func (m *MockDocumentService) Enqueue(ctx context.Context, key string) (*domain.IngestionJob, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionJob), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Answer(ctx context.Context, query string, topK int) (*domain.ChatResult, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatResult), args.Error(1)
}

func (m *MockChatService) AnswerStream(ctx context.Context, query string, topK int, onDelta func(string) error) (*domain.ChatResult, error) {
	args := m.Called(ctx, query, topK, onDelta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatResult), args.Error(1)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func setupRouter(docs *MockDocumentService, chat *MockChatService, maxUpload int64) http.Handler {
	return NewRouter(RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(docs, nil),
		ChatHandler:     handlers.NewChatHandler(chat, nil),
		CORSOrigins:     []string{"http://localhost:3000"},
		MaxUploadBytes:  maxUpload,
	})
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := setupRouter(new(MockDocumentService), new(MockChatService), 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp map[string]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["data"]["status"])
}

func TestRouter_Routes(t *testing.T) {
	docs := new(MockDocumentService)
	chat := new(MockChatService)
	router := setupRouter(docs, chat, 0)

	docs.On("ListFiles", mock.Anything).Return([]string{"a.pdf"}, nil)
	docs.On("ListDocuments", mock.Anything, mock.Anything).Return(&pagination.PageResult[*domain.Document]{}, nil)
	docs.On("GetDocument", mock.Anything, "a.pdf").Return(nil, domain.ErrDocumentNotFound)
	docs.On("Delete", mock.Anything, "a.pdf").Return(nil)
	docs.On("Process", mock.Anything, "a.pdf").Return(&service.ProcessResult{Blob: "a.pdf"}, nil)
	chat.On("Answer", mock.Anything, "hi", 0).Return(&domain.ChatResult{Answer: "hello"}, nil)
	chat.On("AnswerStream", mock.Anything, "hi", 0, mock.Anything).Return(&domain.ChatResult{Answer: "hello"}, nil)

	routes := []struct {
		method   string
		path     string
		body     string
		expected int
	}{
		{http.MethodGet, "/files", "", http.StatusOK},
		{http.MethodGet, "/documents", "", http.StatusOK},
		{http.MethodGet, "/documents/a.pdf", "", http.StatusNotFound},
		{http.MethodDelete, "/documents/a.pdf", "", http.StatusNoContent},
		{http.MethodPost, "/process?blob=a.pdf", "", http.StatusOK},
		{http.MethodPost, "/chat", `{"query":"hi"}`, http.StatusOK},
		{http.MethodPost, "/chat/stream", `{"query":"hi"}`, http.StatusOK},
		{http.MethodPost, "/chat/feedback", `{"chat_id":"c","helpful":true}`, http.StatusServiceUnavailable},
		{http.MethodGet, "/chat", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/unknown", "", http.StatusNotFound},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, strings.NewReader(route.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, route.expected, w.Code)
		})
	}
}

func TestRouter_ChatStreamIsEventStream(t *testing.T) {
	chat := new(MockChatService)
	router := setupRouter(new(MockDocumentService), chat, 0)

	chat.On("AnswerStream", mock.Anything, "hi", 0, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = args.Get(3).(func(string) error)("hel")
		}).
		Return(&domain.ChatResult{Answer: "hel"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(`{"query":"hi"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), `data: {"type":"content","content":"hel"}`))
	assert.True(t, w.Flushed)
}

func TestRouter_UploadBodyLimit(t *testing.T) {
	docs := new(MockDocumentService)
	router := setupRouter(docs, new(MockChatService), 16)

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(bytes.Repeat([]byte("x"), 64)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	docs.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := setupRouter(new(MockDocumentService), new(MockChatService), 0)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
