package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMinConns int32  `envconfig:"DATABASE_MIN_CONNS" default:"1"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docchat-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL         string `envconfig:"OPENAI_BASE_URL"`
	OpenAIAPIType         string `envconfig:"OPENAI_API_TYPE" default:"openai"`
	OpenAIAPIVersion      string `envconfig:"OPENAI_API_VERSION" default:"2024-06-01"`
	ChatModel             string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	GroundingModel        string `envconfig:"GROUNDING_MODEL"`
	EmbeddingModel        string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions   int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	EmbeddingBatchSize    int    `envconfig:"EMBEDDING_BATCH_SIZE" default:"16"`
	EmbeddingConcurrency  int    `envconfig:"EMBEDDING_CONCURRENCY" default:"4"`
	ModelGroundingEnabled bool   `envconfig:"MODEL_GROUNDING" default:"true"`

	CallTimeout   time.Duration `envconfig:"CALL_TIMEOUT" default:"60s"`
	StreamTimeout time.Duration `envconfig:"STREAM_TIMEOUT" default:"5m"`
	MaxRetries    int           `envconfig:"MAX_RETRIES" default:"2"`

	ChunkSize          int     `envconfig:"CHUNK_SIZE" default:"2000"`
	ChunkOverlap       int     `envconfig:"CHUNK_OVERLAP" default:"200"`
	TopK               int     `envconfig:"TOP_K" default:"5"`
	MaxContextChars    int     `envconfig:"MAX_CONTEXT_CHARS" default:"0"`
	GroundingThreshold float64 `envconfig:"GROUNDING_THRESHOLD" default:"3.0"`
	PromptTemplate     string  `envconfig:"PROMPT_TEMPLATE"`

	// Optional YAML file overriding the pipeline settings above
	PipelineFile string `envconfig:"PIPELINE_FILE"`

	IngestionPollInterval time.Duration `envconfig:"INGESTION_POLL_INTERVAL" default:"10s"`
	CORSOrigins           []string      `envconfig:"CORS_ORIGINS" default:"*"`
	MaxUploadBytes        int64         `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCCHAT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.PipelineFile != "" {
		pipeline, err := LoadPipeline(cfg.PipelineFile)
		if err != nil {
			return nil, err
		}
		cfg.ApplyPipeline(pipeline)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks the pipeline settings for values the chunker and grader
// cannot work with.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid config: CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("invalid config: CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("invalid config: TOP_K must be positive, got %d", c.TopK)
	}
	if c.GroundingThreshold < 0 || c.GroundingThreshold > 5 {
		return fmt.Errorf("invalid config: GROUNDING_THRESHOLD must be in [0, 5], got %.2f", c.GroundingThreshold)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid config: MAX_RETRIES cannot be negative")
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3Bucket != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// IsAzure reports whether the OpenAI settings point at an Azure OpenAI resource.
func (c *Config) IsAzure() bool {
	return strings.EqualFold(c.OpenAIAPIType, "azure")
}
