package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit_WithoutDSNIsNoop(t *testing.T) {
	shutdown, err := Init(Config{})
	assert.NoError(t, err)
	assert.NotPanics(t, shutdown)
}

func TestSampleRate(t *testing.T) {
	assert.Equal(t, 1.0, sampleRate(0))
	assert.Equal(t, 1.0, sampleRate(-0.5))
	assert.Equal(t, 1.0, sampleRate(3))
	assert.Equal(t, 0.25, sampleRate(0.25))
}

func TestSampleDecision_NilSpanUsesRate(t *testing.T) {
	assert.Equal(t, 0.5, sampleDecision(nil, 0.5))
}

func TestSpan_NilSafe(t *testing.T) {
	var span *Span
	assert.NotPanics(t, func() {
		span.SetError(errors.New("boom"))
		span.End()
	})
}

func TestStartSpan_WithoutClient(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "Retriever.Retrieve", SpanAttributes{
		Operation: "retrieve",
		TopK:      5,
	})
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		span.SetError(errors.New("search failed"))
		span.End()
	})
}
