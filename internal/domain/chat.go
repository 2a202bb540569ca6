package domain

import "time"

// Phase names a stage of the answer pipeline in the reasoning log.
type Phase string

const (
	PhaseRetrieval  Phase = "Retrieval"
	PhaseGeneration Phase = "Generation"
	PhaseGrounding  Phase = "Grounding"
	PhaseTotal      Phase = "Total"
)

// Grounding scores are ordinal on [MinGroundingScore, MaxGroundingScore].
const (
	MinGroundingScore = 0.0
	MaxGroundingScore = 5.0

	// DefaultGroundingThreshold is the lowest score still considered grounded.
	DefaultGroundingThreshold = 3.0
)

// ReasoningStep records what one pipeline phase did and how long it took.
type ReasoningStep struct {
	Phase    Phase
	Details  string
	Duration time.Duration
}

// Source is a document cited by an answer with the snippet that matched.
type Source struct {
	Document string
	Content  string
}

// ChatResult is the outcome of answering one query.
type ChatResult struct {
	Answer          string
	Sources         []Source
	GroundingScore  float64
	IsGrounded      bool
	GroundingMethod string
	Strategy        string
	ReasoningLog    []ReasoningStep
}

// Step returns the reasoning step for phase, if recorded.
func (r *ChatResult) Step(phase Phase) (ReasoningStep, bool) {
	if r == nil {
		return ReasoningStep{}, false
	}
	for _, s := range r.ReasoningLog {
		if s.Phase == phase {
			return s, true
		}
	}
	return ReasoningStep{}, false
}

// ClampGroundingScore bounds a score to the ordinal scale.
func ClampGroundingScore(score float64) float64 {
	if score < MinGroundingScore {
		return MinGroundingScore
	}
	if score > MaxGroundingScore {
		return MaxGroundingScore
	}
	return score
}
