package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/cloo-solutions/docchat/internal/telemetry"
)

const (
	// MaxRetries is the maximum number of attempts for a failing job
	MaxRetries = 3
	// ClaimBatchSize bounds how many jobs one poll claims
	ClaimBatchSize = 10
)

// IngestionJobRepository defines the job persistence the worker needs
type IngestionJobRepository interface {
	// ClaimPending moves pending jobs to processing and returns them
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestionJob, error)

	UpdateStatus(ctx context.Context, jobID string, status domain.IngestionJobStatus, errMsg string) error

	IncrementRetries(ctx context.Context, jobID string) error
}

// DocumentProcessor runs the ingestion pipeline for one stored document
type DocumentProcessor interface {
	Process(ctx context.Context, key string) (*service.ProcessResult, error)
}

// IngestionWorker processes queued ingestion jobs
type IngestionWorker struct {
	repo      IngestionJobRepository
	processor DocumentProcessor
}

// NewIngestionWorker creates a new IngestionWorker instance
func NewIngestionWorker(repo IngestionJobRepository, processor DocumentProcessor) *IngestionWorker {
	return &IngestionWorker{
		repo:      repo,
		processor: processor,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestionWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, ClaimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("ingestion: processing %d pending jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("ingestion: error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IngestionWorker) processJob(ctx context.Context, job *domain.IngestionJob) error {
	ctx, span := telemetry.StartTransaction(ctx, "ingest "+job.DocumentKey, "ingestion.job")
	defer span.End()

	log.Printf("ingestion: processing job %s for %s", job.ID, job.DocumentKey)
	result, err := w.processor.Process(ctx, job.DocumentKey)
	if err != nil {
		span.SetError(err)
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("ingestion: job %s completed: %s", job.ID, result.Message)
	return nil
}

// handleJobFailure requeues a failed job until it runs out of attempts.
// Missing blobs and invalid input fail at once, since a retry cannot fix them.
func (w *IngestionWorker) handleJobFailure(ctx context.Context, job *domain.IngestionJob, jobErr error) error {
	log.Printf("ingestion: job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if !retryable(jobErr) || job.Retries+1 >= MaxRetries {
		log.Printf("ingestion: job %s for %s will not be retried", job.ID, job.DocumentKey)
		errMsg := fmt.Sprintf("giving up after %d attempts: %v", job.Retries+1, jobErr)
		telemetry.CaptureMessage(ctx, fmt.Sprintf("ingestion of %s failed: %s", job.DocumentKey, errMsg))
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("ingestion: job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestionJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}

func retryable(err error) bool {
	switch domain.ErrorCode(err) {
	case domain.ErrCodeNotFound, domain.ErrCodeValidation:
		return false
	}
	return true
}
