package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStore) HeadObject(ctx context.Context, key string) (*ObjectMetadata, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ObjectMetadata), args.Error(1)
}

func (m *MockObjectStore) ListObjects(ctx context.Context) ([]ObjectMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ObjectMetadata), args.Error(1)
}

func (m *MockObjectStore) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestBlobStore_GetObject(t *testing.T) {
	objects := new(MockObjectStore)
	store := NewBlobStore(objects)
	ctx := context.Background()

	objects.On("GetObject", ctx, "policy.txt").Return([]byte("15 days"), nil)

	data, err := store.GetObject(ctx, "policy.txt")

	require.NoError(t, err)
	assert.Equal(t, []byte("15 days"), data)
}

func TestBlobStore_GetObject_NotFound(t *testing.T) {
	objects := new(MockObjectStore)
	store := NewBlobStore(objects)
	ctx := context.Background()

	objects.On("GetObject", ctx, "missing.txt").Return(nil, errors.Join(ErrObjectNotFound, errors.New("NoSuchKey")))

	_, err := store.GetObject(ctx, "missing.txt")

	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestBlobStore_GetObject_OtherError(t *testing.T) {
	objects := new(MockObjectStore)
	store := NewBlobStore(objects)
	ctx := context.Background()

	objects.On("GetObject", ctx, "policy.txt").Return(nil, errors.New("connection reset"))

	_, err := store.GetObject(ctx, "policy.txt")

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestBlobStore_StatObject(t *testing.T) {
	objects := new(MockObjectStore)
	store := NewBlobStore(objects)
	ctx := context.Background()
	modified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	objects.On("HeadObject", ctx, "policy.pdf").Return(&ObjectMetadata{
		Key:           "policy.pdf",
		ContentLength: 2048,
		ContentType:   "application/pdf",
		LastModified:  modified,
	}, nil)

	info, err := store.StatObject(ctx, "policy.pdf")

	require.NoError(t, err)
	assert.Equal(t, "policy.pdf", info.Key)
	assert.Equal(t, int64(2048), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)
	assert.Equal(t, modified, info.LastModified)
}

func TestBlobStore_StatObject_NotFound(t *testing.T) {
	objects := new(MockObjectStore)
	store := NewBlobStore(objects)
	ctx := context.Background()

	objects.On("HeadObject", ctx, "missing.pdf").Return(nil, ErrObjectNotFound)

	info, err := store.StatObject(ctx, "missing.pdf")

	assert.Nil(t, info)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestBlobStore_ListObjects_SortedByKey(t *testing.T) {
	objects := new(MockObjectStore)
	store := NewBlobStore(objects)
	ctx := context.Background()

	objects.On("ListObjects", ctx).Return([]ObjectMetadata{
		{Key: "zeta.txt", ContentLength: 3},
		{Key: "alpha.md", ContentLength: 1},
		{Key: "mid.pdf", ContentLength: 2},
	}, nil)

	infos, err := store.ListObjects(ctx)

	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "alpha.md", infos[0].Key)
	assert.Equal(t, "mid.pdf", infos[1].Key)
	assert.Equal(t, "zeta.txt", infos[2].Key)
	assert.Equal(t, int64(1), infos[0].Size)
}

func TestBlobStore_PutAndDelete(t *testing.T) {
	objects := new(MockObjectStore)
	store := NewBlobStore(objects)
	ctx := context.Background()
	body := strings.NewReader("content")

	objects.On("PutObject", ctx, "notes.txt", body, int64(7), "text/plain").Return(nil)
	objects.On("DeleteObject", ctx, "notes.txt").Return(nil)

	require.NoError(t, store.PutObject(ctx, "notes.txt", body, 7, "text/plain"))
	require.NoError(t, store.DeleteObject(ctx, "notes.txt"))
	objects.AssertExpectations(t)
}
