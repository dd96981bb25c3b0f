package web

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
	"github.com/couchcryptid/heat-stress-etl/internal/observability"
)

// --- mock for cache tests ---

type countingFetcher struct {
	calls map[string]int
	err   error
}

func (m *countingFetcher) Fetch(_ context.Context, _ domain.PageKind, url string) ([]byte, error) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[url]++
	if m.err != nil {
		return nil, m.err
	}
	return []byte("body of " + url), nil
}

// --- CachedFetcher tests ---

func TestCachedFetcher_Hit(t *testing.T) {
	inner := &countingFetcher{}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedFetcher(inner, 10, metrics)

	b1, err := cached.Fetch(context.Background(), domain.ArticlePage, "a")
	require.NoError(t, err)
	b2, err := cached.Fetch(context.Background(), domain.ArticlePage, "a")
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
	assert.Equal(t, 1, inner.calls["a"], "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchCache.WithLabelValues("miss")), 0)
}

func TestCachedFetcher_ErrorsNotCached(t *testing.T) {
	inner := &countingFetcher{err: errors.New("connection reset")}
	cached := NewCachedFetcher(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Fetch(context.Background(), domain.IndexPage, "a")
	require.Error(t, err)
	_, err = cached.Fetch(context.Background(), domain.IndexPage, "a")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls["a"])
	assert.Equal(t, 0, cached.cache.len())
}

func TestCachedFetcher_Eviction(t *testing.T) {
	inner := &countingFetcher{}
	cached := NewCachedFetcher(inner, 2, observability.NewMetricsForTesting())
	ctx := context.Background()

	for _, u := range []string{"a", "b", "a", "c", "a", "b"} {
		_, err := cached.Fetch(ctx, domain.ArticlePage, u)
		require.NoError(t, err)
	}

	// "b" was least recently used when "c" arrived, so it was fetched twice.
	assert.Equal(t, 1, inner.calls["a"])
	assert.Equal(t, 2, inner.calls["b"])
	assert.Equal(t, 1, inner.calls["c"])
	assert.Equal(t, 2, cached.cache.len())
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.put("k", []byte("v1"))
	c.put("k", []byte("v2"))

	v, ok := c.get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
	assert.Equal(t, 1, c.len())
}
