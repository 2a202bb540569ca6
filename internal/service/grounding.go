package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloo-solutions/docchat/internal/domain"
)

const (
	GroundingMethodModel     = "model"
	GroundingMethodHeuristic = "heuristic"
	GroundingMethodNone      = "none"
)

var errGroundingUnavailable = errors.New("no grounding evaluator configured")

// Phrases a model uses when it declines to answer from the context. Longer
// phrases come first so they are stripped before their substrings.
var ungroundedPhrases = []string{
	"not provided in the documents",
	"information is not available",
	"don't have this information",
	"not mentioned",
	"not available",
	"not provided",
	"no information",
	"cannot find",
	"i don't have",
	"not in the",
}

// GroundingModel grades how well an answer is supported by its context on
// the 0 to 5 scale.
type GroundingModel interface {
	Grade(ctx context.Context, answer, contextText string) (float64, error)
}

// GroundingAssessment is the outcome of scoring one answer. Degraded holds
// the model error when the heuristic had to stand in.
type GroundingAssessment struct {
	Score    float64
	Grounded bool
	Method   string
	Degraded error
}

// GroundingEvaluator scores answers with a grading model when one is
// configured and with a length heuristic otherwise or on model failure.
type GroundingEvaluator struct {
	model     GroundingModel
	threshold float64
}

func NewGroundingEvaluator(model GroundingModel, threshold float64) *GroundingEvaluator {
	return &GroundingEvaluator{
		model:     model,
		threshold: threshold,
	}
}

func (e *GroundingEvaluator) Threshold() float64 {
	return e.threshold
}

// Evaluate never fails: model errors fall back to the heuristic.
func (e *GroundingEvaluator) Evaluate(ctx context.Context, answer, contextText string) GroundingAssessment {
	var degraded error
	if e.model != nil {
		score, err := e.model.Grade(ctx, answer, contextText)
		if err == nil {
			return e.assess(score, GroundingMethodModel, nil)
		}
		log.Printf("grounding: model grading failed, using heuristic: %v", err)
		degraded = fmt.Errorf("model grading failed: %w", err)
	}
	return e.assess(HeuristicGroundingScore(answer), GroundingMethodHeuristic, degraded)
}

func (e *GroundingEvaluator) assess(score float64, method string, degraded error) GroundingAssessment {
	score = domain.ClampGroundingScore(score)
	return GroundingAssessment{
		Score:    score,
		Grounded: score >= e.threshold,
		Method:   method,
		Degraded: degraded,
	}
}

// HeuristicGroundingScore rates an answer by how much it says once refusal
// phrases are removed. Long answers score high; answers that admit missing
// information are marked down.
func HeuristicGroundingScore(answer string) float64 {
	text := strings.ToLower(answer)
	refusal := false
	for _, phrase := range ungroundedPhrases {
		if strings.Contains(text, phrase) {
			refusal = true
			text = strings.ReplaceAll(text, phrase, " ")
		}
	}
	length := runeLen(strings.Join(strings.Fields(text), " "))

	switch {
	case length > 200 && !refusal:
		return 5.0
	case length > 200:
		return 3.5
	case length > 100 && !refusal:
		return 4.0
	case length > 100:
		return 2.5
	default:
		return 1.0 + float64(length)/100.0
	}
}
