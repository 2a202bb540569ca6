package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/docchat/internal/api"
	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/service"
)

const chatLogTimeout = 5 * time.Second

type ChatService interface {
	Answer(ctx context.Context, query string, topK int) (*domain.ChatResult, error)
	AnswerStream(ctx context.Context, query string, topK int, onDelta func(string) error) (*domain.ChatResult, error)
}

type ChatHandler struct {
	svc         ChatService
	logs        service.ChatLogRepository
	defaultTopK int
}

// NewChatHandler creates a ChatHandler. With a nil logs repository answers
// are not recorded and feedback is rejected.
func NewChatHandler(svc ChatService, logs service.ChatLogRepository) *ChatHandler {
	return &ChatHandler{svc: svc, logs: logs, defaultTopK: service.DefaultTopK}
}

// WithDefaultTopK sets the top_k used when a request omits it.
func (h *ChatHandler) WithDefaultTopK(topK int) *ChatHandler {
	if topK > 0 {
		h.defaultTopK = min(topK, service.MaxTopK)
	}
	return h
}

type ChatRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

type FeedbackRequest struct {
	ChatID  string `json:"chat_id"`
	Helpful *bool  `json:"helpful"`
	Comment string `json:"comment,omitempty"`
}

type SourceResponse struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

type ReasoningStepResponse struct {
	Step     string `json:"step"`
	Details  string `json:"details"`
	Duration string `json:"duration"`
}

type ChatResponse struct {
	Answer          string                  `json:"answer"`
	Sources         []SourceResponse        `json:"sources"`
	GroundingScore  float64                 `json:"grounding_score"`
	IsGrounded      bool                    `json:"is_grounded"`
	GroundingMethod string                  `json:"grounding_method"`
	Strategy        string                  `json:"strategy"`
	ReasoningLog    []ReasoningStepResponse `json:"reasoning_log"`
	ChatID          string                  `json:"chat_id,omitempty"`
}

// Stream events, in the order they are sent.
type contentEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type sourcesEvent struct {
	Type    string           `json:"type"`
	Sources []SourceResponse `json:"sources"`
}

type reasoningEvent struct {
	Type            string                  `json:"type"`
	ReasoningLog    []ReasoningStepResponse `json:"reasoning_log"`
	GroundingScore  float64                 `json:"grounding_score"`
	IsGrounded      bool                    `json:"is_grounded"`
	GroundingMethod string                  `json:"grounding_method"`
	Strategy        string                  `json:"strategy"`
}

type doneEvent struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id,omitempty"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	EventContent   = "content"
	EventSources   = "sources"
	EventReasoning = "reasoning"
	EventDone      = "done"
	EventError     = "error"
)

func sourcesToResponse(sources []domain.Source) []SourceResponse {
	resp := make([]SourceResponse, 0, len(sources))
	for _, s := range sources {
		resp = append(resp, SourceResponse{Source: s.Document, Content: s.Content})
	}
	return resp
}

func reasoningToResponse(steps []domain.ReasoningStep) []ReasoningStepResponse {
	resp := make([]ReasoningStepResponse, 0, len(steps))
	for _, s := range steps {
		resp = append(resp, ReasoningStepResponse{
			Step:     string(s.Phase),
			Details:  s.Details,
			Duration: fmt.Sprintf("%.2fs", s.Duration.Seconds()),
		})
	}
	return resp
}

func chatResultToResponse(r *domain.ChatResult, chatID string) *ChatResponse {
	return &ChatResponse{
		Answer:          r.Answer,
		Sources:         sourcesToResponse(r.Sources),
		GroundingScore:  r.GroundingScore,
		IsGrounded:      r.IsGrounded,
		GroundingMethod: r.GroundingMethod,
		Strategy:        r.Strategy,
		ReasoningLog:    reasoningToResponse(r.ReasoningLog),
		ChatID:          chatID,
	}
}

// decodeChatRequest validates the body and writes a 400 when it is unusable.
// An omitted top_k resolves to the handler default and one above
// service.MaxTopK is clamped.
func (h *ChatHandler) decodeChatRequest(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return "", 0, false
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return "", 0, false
	}

	topK := h.defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
		if topK <= 0 {
			api.Error(w, http.StatusBadRequest, "top_k must be positive")
			return "", 0, false
		}
		if topK > service.MaxTopK {
			topK = service.MaxTopK
		}
	}

	return query, topK, true
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	query, topK, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.svc.Answer(r.Context(), query, topK)
	chatID := h.record(r.Context(), query, topK, false, result, err, start)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, chatResultToResponse(result, chatID))
}

// Stream answers over server-sent events: content deltas, then sources,
// then reasoning, then done. A failure before the first delta is answered
// as a plain JSON error; after that the stream ends with an error event.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	query, topK, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	sse, err := api.NewSSEWriter(w)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	result, err := h.svc.AnswerStream(r.Context(), query, topK, func(delta string) error {
		return sse.Send(contentEvent{Type: EventContent, Content: delta})
	})
	chatID := h.record(r.Context(), query, topK, true, result, err, start)
	if err != nil {
		if !sse.Started() {
			api.HandleError(w, err)
			return
		}
		if sendErr := sse.Send(errorEvent{Type: EventError, Error: err.Error(), Code: domain.ErrorCode(err)}); sendErr != nil {
			log.Printf("chat: failed to send stream error: %v", sendErr)
		}
		return
	}

	events := []interface{}{
		sourcesEvent{Type: EventSources, Sources: sourcesToResponse(result.Sources)},
		reasoningEvent{
			Type:            EventReasoning,
			ReasoningLog:    reasoningToResponse(result.ReasoningLog),
			GroundingScore:  result.GroundingScore,
			IsGrounded:      result.IsGrounded,
			GroundingMethod: result.GroundingMethod,
			Strategy:        result.Strategy,
		},
		doneEvent{Type: EventDone, ChatID: chatID},
	}
	for _, ev := range events {
		if err := sse.Send(ev); err != nil {
			log.Printf("chat: client went away mid-stream: %v", err)
			return
		}
	}
}

func (h *ChatHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	if h.logs == nil {
		api.Error(w, http.StatusServiceUnavailable, "chat logging is not configured")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChatID == "" {
		api.Error(w, http.StatusBadRequest, "chat_id is required")
		return
	}
	if req.Helpful == nil {
		api.Error(w, http.StatusBadRequest, "helpful is required")
		return
	}

	if err := h.logs.RecordFeedback(r.Context(), req.ChatID, *req.Helpful, req.Comment); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// record stores the chat log and returns its id. Logging never fails the
// request, and outlives a client that already disconnected.
func (h *ChatHandler) record(ctx context.Context, query string, topK int, streamed bool, result *domain.ChatResult, answerErr error, start time.Time) string {
	if h.logs == nil {
		return ""
	}

	entry := service.ChatLogEntry{
		Query:      query,
		TopK:       topK,
		Streamed:   streamed,
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if result != nil {
		entry.Strategy = result.Strategy
		entry.GroundingScore = result.GroundingScore
		entry.IsGrounded = result.IsGrounded
		entry.GroundingMethod = result.GroundingMethod
		for i, s := range result.Sources {
			entry.Sources = append(entry.Sources, service.ChatLogSource{Document: s.Document, Rank: i + 1})
		}
	}
	if answerErr != nil {
		entry.Error = answerErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), chatLogTimeout)
	defer cancel()

	id, err := h.logs.CreateChatLog(ctx, entry)
	if err != nil {
		log.Printf("chat: failed to record chat log: %v", err)
		return ""
	}
	return id
}
