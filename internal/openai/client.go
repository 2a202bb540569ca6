package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions matches the vector column of document_chunks
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel answers questions and grades answers
	DefaultChatModel = openai.GPT4oMini

	DefaultTimeout       = 60 * time.Second
	DefaultStreamTimeout = 5 * time.Minute

	APITypeOpenAI = "openai"
	APITypeAzure  = "azure"
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("DOCCHAT_OPENAI_API_KEY environment variable not set")
	// ErrEmptyResponse is returned when the API answers without any choice or data
	ErrEmptyResponse = errors.New("empty response from model")
)

// API is the slice of the OpenAI surface the client depends on.
type API interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	CreateChatCompletion(ctx context.Context, model, prompt string) (string, error)
	CreateChatCompletionStream(ctx context.Context, model, prompt string, onDelta func(string) error) error
}

// Client wraps the OpenAI API client
type Client struct {
	api           API
	dimensions    int
	chatModel     string
	timeout       time.Duration
	streamTimeout time.Duration
	retry         RetryConfig
}

// OpenAIAdapter talks to OpenAI or Azure OpenAI through go-openai.
type OpenAIAdapter struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	model := openai.EmbeddingModel(cfg.EmbeddingModel)
	if model == "" {
		model = DefaultEmbeddingModel
	}

	var clientCfg openai.ClientConfig
	if strings.EqualFold(cfg.APIType, APITypeAzure) {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
		// Azure routes by deployment name; deployments are named after the model.
		clientCfg.AzureModelMapperFunc = func(model string) string {
			return model
		}
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}

	return &OpenAIAdapter{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		dimensions: cfg.EmbeddingDimensions,
	}
}

// CreateEmbeddings calls the OpenAI API to create one embedding per text
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: a.model,
	}
	// ada-002 rejects the dimensions parameter
	if a.model != openai.AdaEmbeddingV2 {
		req.Dimensions = a.dimensions
	}

	resp, err := a.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmptyResponse, len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}

func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, model, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, chatRequest(model, prompt, false))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *OpenAIAdapter) CreateChatCompletionStream(ctx context.Context, model, prompt string, onDelta func(string) error) error {
	stream, err := a.client.CreateChatCompletionStream(ctx, chatRequest(model, prompt, true))
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onDelta(resp.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}

func chatRequest(model, prompt string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: stream,
	}
}

type Config struct {
	APIKey              string
	BaseURL             string
	APIType             string
	APIVersion          string
	ChatModel           string
	EmbeddingModel      string
	EmbeddingDimensions int
	Timeout             time.Duration
	StreamTimeout       time.Duration
	MaxRetries          int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey, MaxRetries: DefaultMaxRetries})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	return newClient(NewOpenAIAdapter(cfg), cfg)
}

func newClient(api API, cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	streamTimeout := cfg.StreamTimeout
	if streamTimeout <= 0 {
		streamTimeout = DefaultStreamTimeout
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		api:           api,
		dimensions:    dimensions,
		chatModel:     chatModel,
		timeout:       timeout,
		streamTimeout: streamTimeout,
		retry:         RetryConfig{MaxRetries: retries, InitialInterval: defaultInitialInterval, MaxInterval: defaultMaxInterval},
	}
}

// NewClientFromEnv creates a new OpenAI client using DOCCHAT_OPENAI_API_KEY
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("DOCCHAT_OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// ChatModel returns the model used for completions.
func (c *Client) ChatModel() string {
	return c.chatModel
}

// WithChatModel returns a copy of the client that completes with model.
func (c *Client) WithChatModel(model string) *Client {
	if model == "" {
		return c
	}
	clone := *c
	clone.chatModel = model
	return &clone
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// GenerateEmbeddings embeds texts in a single request, preserving order.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyText
		}
	}

	var embeddings [][]float32
	err := c.withRetry(ctx, c.timeout, func(ctx context.Context) error {
		var err error
		embeddings, err = c.api.CreateEmbeddings(ctx, texts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("failed to create embedding: got %d embeddings for %d inputs", len(embeddings), len(texts))
	}
	for _, embedding := range embeddings {
		if len(embedding) != c.dimensions {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrWrongDimensions, len(embedding), c.dimensions)
		}
	}

	return embeddings, nil
}

// Complete returns the full completion for prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyText
	}

	var answer string
	err := c.withRetry(ctx, c.timeout, func(ctx context.Context) error {
		var err error
		answer, err = c.api.CreateChatCompletion(ctx, c.chatModel, prompt)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	return answer, nil
}

// CompleteStream delivers the completion for prompt as it is produced.
// A stream is only retried while nothing has been delivered yet.
func (c *Client) CompleteStream(ctx context.Context, prompt string, onDelta func(string) error) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyText
	}

	delivered := false
	err := c.withRetry(ctx, c.streamTimeout, func(ctx context.Context) error {
		err := c.api.CreateChatCompletionStream(ctx, c.chatModel, prompt, func(delta string) error {
			delivered = true
			return onDelta(delta)
		})
		if err != nil && delivered {
			return permanent(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to stream chat completion: %w", err)
	}
	return nil
}
