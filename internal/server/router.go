package server

import (
	"net/http"

	"github.com/cloo-solutions/docchat/internal/api"
	"github.com/cloo-solutions/docchat/internal/api/handlers"
	"github.com/cloo-solutions/docchat/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

// DefaultMaxUploadBytes bounds a multipart upload when the config leaves it unset.
const DefaultMaxUploadBytes int64 = 50 * 1024 * 1024

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	ChatHandler     *handlers.ChatHandler
	CORSOrigins     []string
	MaxUploadBytes  int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.With(middleware.MaxBodyBytes(maxUploadBytes)).Post("/upload", cfg.DocumentHandler.Upload)

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodyBytes(maxBodyBytes))

		r.Get("/files", cfg.DocumentHandler.ListFiles)
		r.Post("/process", cfg.DocumentHandler.Process)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", cfg.DocumentHandler.ListDocuments)
			r.Get("/{key}", cfg.DocumentHandler.GetDocument)
			r.Delete("/{key}", cfg.DocumentHandler.Delete)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", cfg.ChatHandler.Chat)
			r.Post("/stream", cfg.ChatHandler.Stream)
			r.Post("/feedback", cfg.ChatHandler.Feedback)
		})
	})

	return r
}
