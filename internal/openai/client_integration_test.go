//go:build integration

package openai

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integrationClient(t *testing.T) *Client {
	t.Helper()
	apiKey := os.Getenv("DOCCHAT_OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("DOCCHAT_OPENAI_API_KEY not set, skipping integration test")
	}
	return NewClient(apiKey)
}

func TestIntegration_GenerateEmbedding_RealAPI(t *testing.T) {
	client := integrationClient(t)

	embedding, err := client.GenerateEmbedding(context.Background(), "This is a test document for generating embeddings.")

	require.NoError(t, err)
	assert.Len(t, embedding, DefaultEmbeddingDimensions)
}

func TestIntegration_CompleteStream_RealAPI(t *testing.T) {
	client := integrationClient(t)

	var answer string
	err := client.CompleteStream(context.Background(), "Reply with the single word: ready", func(delta string) error {
		answer += delta
		return nil
	})

	require.NoError(t, err)
	assert.NotEmpty(t, answer)
}
