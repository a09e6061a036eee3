package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is a mock implementation of the ImageStore interface for testing.
type mockStore struct {
	putFunc    func(ctx context.Context, img *Image) (string, error)
	deleteFunc func(ctx context.Context, ref string) error
	prefix     string
}

func (m *mockStore) Put(ctx context.Context, img *Image) (string, error) {
	if m.putFunc != nil {
		return m.putFunc(ctx, img)
	}
	return "", errors.New("not implemented")
}

func (m *mockStore) Delete(ctx context.Context, ref string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, ref)
	}
	return errors.New("not implemented")
}

func (m *mockStore) Owns(ref string) bool {
	return m.prefix != "" && strings.HasPrefix(ref, m.prefix)
}

var testImage = &Image{Data: pngBytes, ContentType: "image/png", Extension: ".png"}

func TestFallbackStore_S3Success(t *testing.T) {
	s3 := &mockStore{
		putFunc: func(ctx context.Context, img *Image) (string, error) {
			return "products/a.png", nil
		},
	}
	local := &mockStore{
		putFunc: func(ctx context.Context, img *Image) (string, error) {
			t.Error("local store should not be called when S3 succeeds")
			return "", errors.New("should not be called")
		},
	}

	store := NewFallbackStore(s3, local, true, zerolog.Nop())

	ref, err := store.Put(context.Background(), testImage)
	assert.NoError(t, err)
	assert.Equal(t, "products/a.png", ref)
}

func TestFallbackStore_S3FailsFallsBackToLocal(t *testing.T) {
	s3 := &mockStore{
		putFunc: func(ctx context.Context, img *Image) (string, error) {
			return "", errors.New("S3 connection failed")
		},
	}
	local := &mockStore{
		putFunc: func(ctx context.Context, img *Image) (string, error) {
			return "b.png", nil
		},
	}

	store := NewFallbackStore(s3, local, true, zerolog.Nop())

	ref, err := store.Put(context.Background(), testImage)
	assert.NoError(t, err)
	assert.Equal(t, "b.png", ref)
}

func TestFallbackStore_S3Disabled(t *testing.T) {
	s3Called := false
	s3 := &mockStore{
		putFunc: func(ctx context.Context, img *Image) (string, error) {
			s3Called = true
			return "products/a.png", nil
		},
	}
	local := &mockStore{
		putFunc: func(ctx context.Context, img *Image) (string, error) {
			return "b.png", nil
		},
	}

	store := NewFallbackStore(s3, local, false, zerolog.Nop())

	ref, err := store.Put(context.Background(), testImage)
	assert.NoError(t, err)
	assert.Equal(t, "b.png", ref)
	assert.False(t, s3Called)
}

func TestFallbackStore_NilS3(t *testing.T) {
	local := &mockStore{
		putFunc: func(ctx context.Context, img *Image) (string, error) {
			return "b.png", nil
		},
	}

	store := NewFallbackStore(nil, local, true, zerolog.Nop())

	ref, err := store.Put(context.Background(), testImage)
	assert.NoError(t, err)
	assert.Equal(t, "b.png", ref)
}

func TestFallbackStore_BothFail(t *testing.T) {
	s3 := &mockStore{
		putFunc: func(ctx context.Context, img *Image) (string, error) {
			return "", errors.New("S3 error")
		},
	}
	local := &mockStore{
		putFunc: func(ctx context.Context, img *Image) (string, error) {
			return "", errors.New("disk full")
		},
	}

	store := NewFallbackStore(s3, local, true, zerolog.Nop())

	_, err := store.Put(context.Background(), testImage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFallbackStore_DeleteRoutesByOwner(t *testing.T) {
	var deleted []string
	record := func(store string) func(ctx context.Context, ref string) error {
		return func(ctx context.Context, ref string) error {
			deleted = append(deleted, store+":"+ref)
			return nil
		}
	}

	s3 := &mockStore{prefix: "products/", deleteFunc: record("s3")}
	local := &mockStore{deleteFunc: record("local")}

	store := NewFallbackStore(s3, local, true, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, "products/a.png"))
	require.NoError(t, store.Delete(ctx, "b.png"))

	assert.Equal(t, []string{"s3:products/a.png", "local:b.png"}, deleted)
}
