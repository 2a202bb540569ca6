package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatResult_Step(t *testing.T) {
	result := &ChatResult{
		ReasoningLog: []ReasoningStep{
			{Phase: PhaseRetrieval, Details: "Found 2 relevant chunks", Duration: time.Second},
			{Phase: PhaseTotal, Details: "Total processing time", Duration: 2 * time.Second},
		},
	}

	step, ok := result.Step(PhaseRetrieval)
	assert.True(t, ok)
	assert.Equal(t, "Found 2 relevant chunks", step.Details)

	_, ok = result.Step(PhaseGrounding)
	assert.False(t, ok)

	var nilResult *ChatResult
	_, ok = nilResult.Step(PhaseTotal)
	assert.False(t, ok)
}

func TestClampGroundingScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampGroundingScore(-1))
	assert.Equal(t, 3.5, ClampGroundingScore(3.5))
	assert.Equal(t, 5.0, ClampGroundingScore(7))
}
