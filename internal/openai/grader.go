package openai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const graderPrompt = `You grade whether an answer is supported by the context it was written from.
Reply with a single number between 0 and 5, nothing else.
5 means every claim in the answer is stated in the context.
0 means the answer is unrelated to the context or says the information is missing.

Context:
%s

Answer:
%s

Score:`

var scorePattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Completer is satisfied by Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Grader scores answers against their context with a chat model.
type Grader struct {
	completer Completer
}

func NewGrader(completer Completer) *Grader {
	return &Grader{completer: completer}
}

// Grade returns the model's 0-5 support score for answer.
func (g *Grader) Grade(ctx context.Context, answer, contextText string) (float64, error) {
	reply, err := g.completer.Complete(ctx, fmt.Sprintf(graderPrompt, contextText, answer))
	if err != nil {
		return 0, fmt.Errorf("failed to grade answer: %w", err)
	}
	return ParseScore(reply)
}

// ParseScore reads the first number in reply and checks it lies in [0, 5].
func ParseScore(reply string) (float64, error) {
	match := scorePattern.FindString(strings.TrimSpace(reply))
	if match == "" {
		return 0, fmt.Errorf("grader reply has no score: %q", reply)
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse grader score %q: %w", match, err)
	}
	if score > 5 {
		return 0, fmt.Errorf("grader score %.2f out of range", score)
	}
	return score, nil
}
