//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestionJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	jobRepo := NewIngestionJobRepository(setupPool(ctx, t))

	job := domain.NewIngestionJob(uuid.NewString(), "handbook.pdf", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, retrieved.ID)
	assert.Equal(t, "handbook.pdf", retrieved.DocumentKey)
	assert.Equal(t, domain.IngestionJobStatusPending, retrieved.Status)
	assert.Equal(t, int32(0), retrieved.Retries)
	assert.Empty(t, retrieved.Error)
	assert.Nil(t, retrieved.ProcessedAt)
}

func TestIngestionJobRepository_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	jobRepo := NewIngestionJobRepository(setupPool(ctx, t))

	err := jobRepo.Create(ctx, &domain.IngestionJob{ID: uuid.NewString(), Status: domain.IngestionJobStatusPending})

	assert.Equal(t, domain.ErrCodeValidation, domain.ErrorCode(err))
}

func TestIngestionJobRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	jobRepo := NewIngestionJobRepository(setupPool(ctx, t))

	_, err := jobRepo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrIngestionJobNotFound)
}

func TestIngestionJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	jobRepo := NewIngestionJobRepository(setupPool(ctx, t))

	now := time.Now().UTC().Truncate(time.Microsecond)
	job1 := domain.NewIngestionJob(uuid.NewString(), "a.txt", now)
	job2 := domain.NewIngestionJob(uuid.NewString(), "b.txt", now.Add(time.Second))
	job3 := domain.NewIngestionJob(uuid.NewString(), "c.txt", now.Add(2*time.Second))
	busy := domain.NewIngestionJob(uuid.NewString(), "d.txt", now)
	busy.Status = domain.IngestionJobStatusProcessing

	for _, j := range []*domain.IngestionJob{job1, job2, job3, busy} {
		require.NoError(t, jobRepo.Create(ctx, j))
	}

	claimed, err := jobRepo.ClaimPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	claimedIDs := []string{claimed[0].ID, claimed[1].ID}
	assert.ElementsMatch(t, []string{job1.ID, job2.ID}, claimedIDs)
	for _, job := range claimed {
		assert.Equal(t, domain.IngestionJobStatusProcessing, job.Status)
	}

	rest, err := jobRepo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, job3.ID, rest[0].ID)
}

func TestIngestionJobRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	jobRepo := NewIngestionJobRepository(setupPool(ctx, t))

	job := domain.NewIngestionJob(uuid.NewString(), "a.txt", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))

	require.NoError(t, jobRepo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusFailed, "embedding failed"))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionJobStatusFailed, retrieved.Status)
	assert.Equal(t, "embedding failed", retrieved.Error)
	assert.NotNil(t, retrieved.ProcessedAt)

	err = jobRepo.UpdateStatus(ctx, uuid.NewString(), domain.IngestionJobStatusCompleted, "")
	assert.ErrorIs(t, err, domain.ErrIngestionJobNotFound)
}

func TestIngestionJobRepository_IncrementRetries(t *testing.T) {
	ctx := context.Background()
	jobRepo := NewIngestionJobRepository(setupPool(ctx, t))

	job := domain.NewIngestionJob(uuid.NewString(), "a.txt", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))

	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))
	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), retrieved.Retries)

	assert.ErrorIs(t, jobRepo.IncrementRetries(ctx, uuid.NewString()), domain.ErrIngestionJobNotFound)
}
