package storage

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/service"
)

// ObjectStore is the object storage surface BlobStore needs. S3Client satisfies it.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	HeadObject(ctx context.Context, key string) (*ObjectMetadata, error)
	ListObjects(ctx context.Context) ([]ObjectMetadata, error)
	DeleteObject(ctx context.Context, key string) error
}

// BlobStore adapts an ObjectStore to the document service.
type BlobStore struct {
	objects ObjectStore
}

var _ service.BlobStore = (*BlobStore)(nil)

func NewBlobStore(objects ObjectStore) *BlobStore {
	return &BlobStore{objects: objects}
}

func (b *BlobStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return b.objects.PutObject(ctx, key, body, size, contentType)
}

func (b *BlobStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, err := b.objects.GetObject(ctx, key)
	if err != nil {
		return nil, translate(err)
	}
	return data, nil
}

func (b *BlobStore) StatObject(ctx context.Context, key string) (*service.BlobInfo, error) {
	meta, err := b.objects.HeadObject(ctx, key)
	if err != nil {
		return nil, translate(err)
	}
	info := toBlobInfo(*meta)
	return &info, nil
}

// ListObjects returns the stored blobs sorted by key.
func (b *BlobStore) ListObjects(ctx context.Context) ([]service.BlobInfo, error) {
	objects, err := b.objects.ListObjects(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]service.BlobInfo, 0, len(objects))
	for _, obj := range objects {
		infos = append(infos, toBlobInfo(obj))
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key < infos[j].Key
	})
	return infos, nil
}

func (b *BlobStore) DeleteObject(ctx context.Context, key string) error {
	return b.objects.DeleteObject(ctx, key)
}

func toBlobInfo(meta ObjectMetadata) service.BlobInfo {
	return service.BlobInfo{
		Key:          meta.Key,
		Size:         meta.ContentLength,
		ContentType:  meta.ContentType,
		LastModified: meta.LastModified,
	}
}

func translate(err error) error {
	if errors.Is(err, ErrObjectNotFound) {
		return domain.NewDomainErrorWithCause(domain.ErrDocumentNotFound.Code, domain.ErrDocumentNotFound.Message, err)
	}
	return err
}
