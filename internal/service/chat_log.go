package service

import "context"

// ChatLogSource captures a single cited source for logging.
type ChatLogSource struct {
	Document string `json:"document"`
	Rank     int    `json:"rank"`
}

// ChatLogEntry captures a chat request and how it was answered.
type ChatLogEntry struct {
	Query           string
	TopK            int
	Streamed        bool
	Strategy        string
	GroundingScore  float64
	IsGrounded      bool
	GroundingMethod string
	Sources         []ChatLogSource
	DurationMs      int
	Error           string
}

// ChatLogRepository persists chat logs and answer feedback.
type ChatLogRepository interface {
	CreateChatLog(ctx context.Context, entry ChatLogEntry) (string, error)
	RecordFeedback(ctx context.Context, chatID string, helpful bool, comment string) error
}
