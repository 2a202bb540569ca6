package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/telemetry"
)

var errEmptyAnswer = errors.New("model returned an empty answer")

// CompletionClient generates text from a prompt. CompleteStream calls
// onDelta for every content fragment in order and stops at the first
// error onDelta returns.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteStream(ctx context.Context, prompt string, onDelta func(string) error) error
}

// ContextRetriever finds the chunks relevant to a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) (*RetrievalResult, error)
}

// AnswerServiceConfig holds answer pipeline settings.
type AnswerServiceConfig struct {
	Model           string
	DefaultTopK     int
	MaxContextChars int
}

// AnswerService runs retrieve, build context, generate and score grounding
// for one query.
type AnswerService struct {
	retriever ContextRetriever
	generator CompletionClient
	grounding *GroundingEvaluator
	prompt    *PromptTemplate
	cfg       AnswerServiceConfig
	now       func() time.Time
}

// NewAnswerService creates a new AnswerService. A nil prompt uses
// DefaultPromptTemplate; a nil grounding evaluator scores every answer 0.
func NewAnswerService(
	retriever ContextRetriever,
	generator CompletionClient,
	grounding *GroundingEvaluator,
	prompt *PromptTemplate,
	cfg AnswerServiceConfig,
) *AnswerService {
	if prompt == nil {
		prompt = &PromptTemplate{template: DefaultPromptTemplate}
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultTopK
	}
	return &AnswerService{
		retriever: retriever,
		generator: generator,
		grounding: grounding,
		prompt:    prompt,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Answer answers query from the indexed documents. On failure the returned
// result still carries the reasoning log of the phases that ran.
func (s *AnswerService) Answer(ctx context.Context, query string, topK int) (*domain.ChatResult, error) {
	return s.run(ctx, query, topK, nil)
}

// AnswerStream is Answer with the generated text delivered through onDelta
// as it arrives. The result is returned once generation and grounding are
// done, so sources and reasoning always follow the content.
func (s *AnswerService) AnswerStream(ctx context.Context, query string, topK int, onDelta func(string) error) (*domain.ChatResult, error) {
	if onDelta == nil {
		onDelta = func(string) error { return nil }
	}
	return s.run(ctx, query, topK, onDelta)
}

func (s *AnswerService) run(ctx context.Context, query string, topK int, onDelta func(string) error) (*domain.ChatResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}

	operation := "answer"
	if onDelta != nil {
		operation = "answer_stream"
	}
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		TopK:      topK,
		Operation: operation,
	})
	defer span.End()

	start := s.now()
	result := &domain.ChatResult{}
	finish := func(err error) (*domain.ChatResult, error) {
		s.record(result, domain.PhaseTotal, "Total processing time", start)
		if err != nil {
			span.SetError(err)
		}
		return result, err
	}

	phaseStart := s.now()
	retrieval, err := s.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		s.record(result, domain.PhaseRetrieval, fmt.Sprintf("Retrieval failed: %v", err), phaseStart)
		return finish(asRetrievalError(err))
	}
	result.Strategy = retrieval.Strategy
	s.record(result, domain.PhaseRetrieval, retrievalDetails(retrieval), phaseStart)

	hits := LimitHits(retrieval.Hits, s.cfg.MaxContextChars)
	contextText := BuildContext(hits)
	result.Sources = DedupeSources(hits)
	prompt := s.prompt.Format(contextText, query)

	phaseStart = s.now()
	details := fmt.Sprintf("Model: %s | Context size: %d chars", s.cfg.Model, runeLen(contextText))
	if dropped := len(retrieval.Hits) - len(hits); dropped > 0 {
		details += fmt.Sprintf(" | %d chunks dropped to fit context budget", dropped)
	}
	answer, err := s.generate(ctx, prompt, onDelta)
	if err != nil {
		s.record(result, domain.PhaseGeneration, details+fmt.Sprintf(" | Generation failed: %v", err), phaseStart)
		return finish(domain.NewGenerationError(err))
	}
	result.Answer = answer
	s.record(result, domain.PhaseGeneration, details, phaseStart)

	phaseStart = s.now()
	assessment := s.evaluate(ctx, answer, contextText)
	result.GroundingScore = assessment.Score
	result.IsGrounded = assessment.Grounded
	result.GroundingMethod = assessment.Method
	s.record(result, domain.PhaseGrounding, groundingDetails(assessment), phaseStart)

	return finish(nil)
}

func (s *AnswerService) generate(ctx context.Context, prompt string, onDelta func(string) error) (string, error) {
	if onDelta == nil {
		answer, err := s.generator.Complete(ctx, prompt)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(answer) == "" {
			return "", errEmptyAnswer
		}
		return answer, nil
	}

	var b strings.Builder
	err := s.generator.CompleteStream(ctx, prompt, func(delta string) error {
		b.WriteString(delta)
		return onDelta(delta)
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", errEmptyAnswer
	}
	return b.String(), nil
}

// evaluate always yields an assessment. A missing evaluator or a panic in one
// scores the answer 0 and ungrounded.
func (s *AnswerService) evaluate(ctx context.Context, answer, contextText string) (assessment GroundingAssessment) {
	if s.grounding == nil {
		return GroundingAssessment{Method: GroundingMethodNone, Degraded: errGroundingUnavailable}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("grounding: evaluator panicked: %v", r)
			assessment = GroundingAssessment{Method: GroundingMethodNone, Degraded: fmt.Errorf("grounding evaluator panicked: %v", r)}
		}
	}()
	return s.grounding.Evaluate(ctx, answer, contextText)
}

func (s *AnswerService) record(result *domain.ChatResult, phase domain.Phase, details string, since time.Time) {
	result.ReasoningLog = append(result.ReasoningLog, domain.ReasoningStep{
		Phase:    phase,
		Details:  details,
		Duration: s.now().Sub(since),
	})
}

func asRetrievalError(err error) error {
	if domain.ErrorCode(err) == domain.ErrCodeRetrieval {
		return err
	}
	return domain.NewRetrievalError(err)
}

func retrievalDetails(r *RetrievalResult) string {
	details := fmt.Sprintf("Found %d relevant chunks using %s search", len(r.Hits), r.Strategy)
	if r.FallbackReason != nil {
		details += fmt.Sprintf(" (fallback: %v)", r.FallbackReason)
	}
	return details
}

func groundingDetails(a GroundingAssessment) string {
	details := fmt.Sprintf("Grounding score: %.1f/5 (%s)", a.Score, a.Method)
	if a.Degraded != nil {
		details += fmt.Sprintf(" | %v", a.Degraded)
	}
	return details
}
