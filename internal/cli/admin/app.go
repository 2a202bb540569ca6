package admin

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloo-solutions/docchat/internal/config"
	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/loader"
	"github.com/cloo-solutions/docchat/internal/openai"
	"github.com/cloo-solutions/docchat/internal/repository"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/cloo-solutions/docchat/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// app holds the services shared by serve and process.
type app struct {
	documents     *service.DocumentService
	answers       *service.AnswerService
	chatLogs      *repository.ChatLogRepository
	ingestionJobs *repository.IngestionJobRepository
	ready         bool
}

func buildApp(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*app, error) {
	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		embedder  service.EmbeddingClient  = noOpModel{}
		generator service.CompletionClient = noOpModel{}
		grader    service.GroundingModel
	)
	if cfg.HasOpenAI() {
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			APIType:             cfg.OpenAIAPIType,
			APIVersion:          cfg.OpenAIAPIVersion,
			ChatModel:           cfg.ChatModel,
			EmbeddingModel:      cfg.EmbeddingModel,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
			Timeout:             cfg.CallTimeout,
			StreamTimeout:       cfg.StreamTimeout,
			MaxRetries:          cfg.MaxRetries,
		})
		embedder = client
		generator = client
		if cfg.ModelGroundingEnabled {
			grader = openai.NewGrader(client.WithChatModel(cfg.GroundingModel))
		}
		log.Printf("openai: using chat model %s, embedding model %s", client.ChatModel(), cfg.EmbeddingModel)
	} else {
		log.Println("openai: DOCCHAT_OPENAI_API_KEY not set, chat and indexing are disabled")
	}

	chunker, err := service.NewChunker(service.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap})
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}
	prompt, err := service.NewPromptTemplate(cfg.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt template: %w", err)
	}

	chunkRepo := repository.NewChunkRepository(pool)
	indexer := service.NewIndexer(embedder, service.IndexerConfig{
		BatchSize:   cfg.EmbeddingBatchSize,
		Concurrency: cfg.EmbeddingConcurrency,
	})

	documents := service.NewDocumentService(
		blobs,
		loader.New(),
		chunker,
		indexer,
		repository.NewDocumentRepository(pool),
		repository.NewTxRunner(pool),
	)

	answers := service.NewAnswerService(
		service.NewRetriever(embedder, chunkRepo),
		generator,
		service.NewGroundingEvaluator(grader, cfg.GroundingThreshold),
		prompt,
		service.AnswerServiceConfig{
			Model:           cfg.ChatModel,
			DefaultTopK:     cfg.TopK,
			MaxContextChars: cfg.MaxContextChars,
		},
	)

	return &app{
		documents:     documents,
		answers:       answers,
		chatLogs:      repository.NewChatLogRepository(pool),
		ingestionJobs: repository.NewIngestionJobRepository(pool),
		ready:         cfg.HasS3() && cfg.HasOpenAI(),
	}, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (service.BlobStore, error) {
	if !cfg.HasS3() {
		log.Println("storage: S3 credentials not set, uploads are disabled")
		return noOpBlobStore{}, nil
	}

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    cfg.S3Endpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	log.Printf("storage: bucket '%s' ready", cfg.S3Bucket)

	return storage.NewBlobStore(s3Client), nil
}

var (
	errStorageNotConfigured = notConfigured("blob store not configured: DOCCHAT_S3_ACCESS_KEY_ID and DOCCHAT_S3_SECRET_ACCESS_KEY required")
	errModelNotConfigured   = notConfigured("model provider not configured: DOCCHAT_OPENAI_API_KEY required")
)

func notConfigured(msg string) error {
	return domain.NewUpstreamUnavailableError("config", errors.New(msg))
}
