package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// countingSource computes a module summary and records how often it was asked.
type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) load(_ context.Context, module string) (moduleSummary, error) {
	s.calls++
	if s.err != nil {
		return moduleSummary{}, s.err
	}
	return moduleSummary{Module: module, Tutorials: map[string]int{"T01": s.calls}}, nil
}

func newSummaryCache(src *countingSource, skip bool) *ReadThroughCache[summaryKey, moduleSummary, string] {
	manager := NewInMemoryCacheManager[summaryKey, moduleSummary]("summary", DefaultExpiration, DefaultCleanupInterval)
	return NewReadThroughCache[summaryKey, moduleSummary, string](manager, src.load, skip)
}

func TestReadThroughCache_Get_CachesFirstResult(t *testing.T) {
	src := &countingSource{}
	cache := newSummaryCache(src, false)

	first, err := cache.Get(context.Background(), "CS2103", "CS2103", time.Minute)
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "CS2103", "CS2103", time.Minute)
	require.NoError(t, err)

	require.Equal(t, 1, src.calls)
	require.Equal(t, first, second)
}

func TestReadThroughCache_Get_WithCacheDisabled(t *testing.T) {
	src := &countingSource{}
	cache := newSummaryCache(src, true)

	_, err := cache.Get(context.Background(), "CS2103", "CS2103", time.Minute)
	require.NoError(t, err)
	got, err := cache.Get(context.Background(), "CS2103", "CS2103", time.Minute)
	require.NoError(t, err)

	require.Equal(t, 2, src.calls)
	require.Equal(t, 2, got.Tutorials["T01"])
}

func TestReadThroughCache_Get_ErrorIsNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("book unavailable")}
	cache := newSummaryCache(src, false)

	_, err := cache.Get(context.Background(), "CS2103", "CS2103", time.Minute)
	require.EqualError(t, err, "book unavailable")

	src.err = nil
	got, err := cache.Get(context.Background(), "CS2103", "CS2103", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "CS2103", got.Module)
	require.Equal(t, 2, src.calls)
}

func TestReadThroughCache_Invalidate(t *testing.T) {
	src := &countingSource{}
	cache := newSummaryCache(src, false)

	_, err := cache.Get(context.Background(), "CS2103", "CS2103", time.Minute)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background()))

	got, err := cache.Get(context.Background(), "CS2103", "CS2103", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
	require.Equal(t, 2, got.Tutorials["T01"])
}
