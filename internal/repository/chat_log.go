package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatLogRepository stores chat logs and the feedback given on answers.
type ChatLogRepository struct {
	pool *pgxpool.Pool
}

func NewChatLogRepository(pool *pgxpool.Pool) *ChatLogRepository {
	return &ChatLogRepository{pool: pool}
}

func (r *ChatLogRepository) CreateChatLog(ctx context.Context, entry service.ChatLogEntry) (string, error) {
	sources := entry.Sources
	if sources == nil {
		sources = []service.ChatLogSource{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return "", err
	}

	var id string
	err = r.pool.QueryRow(ctx,
		`INSERT INTO chat_logs (query, top_k, streamed, strategy, grounding_score, is_grounded, grounding_method, sources, source_count, duration_ms, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		entry.Query,
		entry.TopK,
		entry.Streamed,
		entry.Strategy,
		entry.GroundingScore,
		entry.IsGrounded,
		entry.GroundingMethod,
		sourcesJSON,
		len(sources),
		entry.DurationMs,
		nullableString(entry.Error),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordFeedback stores whether the answer of chat chatID helped. Later
// feedback on the same chat replaces earlier feedback.
func (r *ChatLogRepository) RecordFeedback(ctx context.Context, chatID string, helpful bool, comment string) error {
	if _, err := uuid.Parse(chatID); err != nil {
		return domain.ErrInvalidChatID
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE chat_logs
		 SET helpful = $1, feedback_comment = $2, feedback_at = $3
		 WHERE id = $4`,
		helpful,
		nullableString(comment),
		time.Now().UTC(),
		chatID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChatLogNotFound
	}
	return nil
}
