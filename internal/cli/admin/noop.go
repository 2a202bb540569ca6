package admin

import (
	"context"
	"io"

	"github.com/cloo-solutions/docchat/internal/service"
)

// noOpBlobStore stands in for S3 when no credentials are configured.
type noOpBlobStore struct{}

func (noOpBlobStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return errStorageNotConfigured
}

func (noOpBlobStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	return nil, errStorageNotConfigured
}

func (noOpBlobStore) StatObject(ctx context.Context, key string) (*service.BlobInfo, error) {
	return nil, errStorageNotConfigured
}

func (noOpBlobStore) ListObjects(ctx context.Context) ([]service.BlobInfo, error) {
	return nil, errStorageNotConfigured
}

func (noOpBlobStore) DeleteObject(ctx context.Context, key string) error {
	return errStorageNotConfigured
}

// noOpModel stands in for OpenAI when no API key is configured.
type noOpModel struct{}

func (noOpModel) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errModelNotConfigured
}

func (noOpModel) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errModelNotConfigured
}

func (noOpModel) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errModelNotConfigured
}

func (noOpModel) CompleteStream(ctx context.Context, prompt string, onDelta func(string) error) error {
	return errModelNotConfigured
}
