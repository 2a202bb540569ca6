//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatLogRepository_CreateAndFeedback(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	repo := NewChatLogRepository(pool)

	id, err := repo.CreateChatLog(ctx, service.ChatLogEntry{
		Query:           "How many vacation days?",
		TopK:            5,
		Strategy:        "hybrid",
		GroundingScore:  4.5,
		IsGrounded:      true,
		GroundingMethod: "model",
		Sources:         []service.ChatLogSource{{Document: "policy.txt", Rank: 1}},
		DurationMs:      120,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	require.NoError(t, repo.RecordFeedback(ctx, id, true, "spot on"))

	var helpful bool
	var comment string
	var sourceCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT helpful, feedback_comment, source_count FROM chat_logs WHERE id = $1`, id,
	).Scan(&helpful, &comment, &sourceCount))
	assert.True(t, helpful)
	assert.Equal(t, "spot on", comment)
	assert.Equal(t, 1, sourceCount)
}

func TestChatLogRepository_RecordFeedback_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewChatLogRepository(setupPool(ctx, t))

	assert.ErrorIs(t, repo.RecordFeedback(ctx, "not-a-uuid", false, ""), domain.ErrInvalidChatID)
	assert.ErrorIs(t, repo.RecordFeedback(ctx, uuid.NewString(), false, ""), domain.ErrChatLogNotFound)
}
