package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	calls atomic.Int32
	err   error
}

func (r *countingReader) GetCatalog(_ context.Context, id string) (*terminology.CodeCatalog, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &terminology.CodeCatalog{URL: id, Concepts: []terminology.Concept{{Code: "A", Display: "foo"}}}, nil
}

func TestNewCatalogCache_DisabledReturnsReader(t *testing.T) {
	reader := &countingReader{}
	assert.Same(t, reader, NewCatalogCache(reader, CacheConfig{}, zerolog.Nop()))
}

func TestCatalogCache_ServesUntilExpiry(t *testing.T) {
	reader := &countingReader{}
	cache := NewCatalogCache(reader, CacheConfig{TTL: time.Minute}, zerolog.Nop()).(*CatalogCache)
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		catalog, err := cache.GetCatalog(context.Background(), "namaste-cs")
		require.NoError(t, err)
		assert.Len(t, catalog.Concepts, 1)
	}
	assert.Equal(t, int32(1), reader.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err := cache.GetCatalog(context.Background(), "namaste-cs")
	require.NoError(t, err)
	assert.Equal(t, int32(2), reader.calls.Load())

	cache.Invalidate("namaste-cs")
	_, err = cache.GetCatalog(context.Background(), "namaste-cs")
	require.NoError(t, err)
	assert.Equal(t, int32(3), reader.calls.Load())
}

func TestCatalogCache_FailuresAreNotCached(t *testing.T) {
	reader := &countingReader{err: terminology.ErrUpstreamUnavailable}
	cache := NewCatalogCache(reader, CacheConfig{TTL: time.Minute}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := cache.GetCatalog(context.Background(), "namaste-cs")
		assert.True(t, errors.Is(err, terminology.ErrUpstreamUnavailable))
	}
	assert.Equal(t, int32(2), reader.calls.Load())
}

func TestCatalogCache_Cleanup(t *testing.T) {
	reader := &countingReader{}
	cache := NewCatalogCache(reader, CacheConfig{TTL: time.Minute, CleanupInterval: time.Hour}, zerolog.Nop()).(*CatalogCache)
	defer cache.Stop()
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, err := cache.GetCatalog(context.Background(), "namaste-cs")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	cache.cleanup()
	_, ok := cache.entries.Load("namaste-cs")
	assert.False(t, ok)
}
