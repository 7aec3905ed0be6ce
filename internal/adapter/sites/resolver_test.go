package sites

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantolingo/pantolingo/internal/config"
	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/logger"
)

type countingStore struct {
	inner *StaticStore
	calls atomic.Int64
}

func (c *countingStore) GetByHostname(ctx context.Context, hostname string) (*domain.SiteConfig, error) {
	c.calls.Add(1)
	return c.inner.GetByHostname(ctx, hostname)
}

func testEntries() []config.SiteEntry {
	return []config.SiteEntry{
		{
			ID:             "site-1",
			Hostname:       "es.example.com",
			OriginHostname: "www.example.com",
			SourceLang:     "en",
			TargetLang:     "es",
			TranslatePaths: true,
		},
	}
}

func TestResolveKnownHost(t *testing.T) {
	r := NewResolver(NewStaticStore(testEntries()), time.Minute, logger.NewTestLogger())

	site, err := r.Resolve(context.Background(), "es.example.com")
	require.NoError(t, err)
	assert.Equal(t, "site-1", site.ID)
	assert.Equal(t, "www.example.com", site.OriginHostname)
}

func TestResolveStripsPort(t *testing.T) {
	r := NewResolver(NewStaticStore(testEntries()), time.Minute, logger.NewTestLogger())

	site, err := r.Resolve(context.Background(), "es.example.com:8084")
	require.NoError(t, err)
	assert.Equal(t, "site-1", site.ID)
}

func TestResolveUnknownHost(t *testing.T) {
	r := NewResolver(NewStaticStore(testEntries()), time.Minute, logger.NewTestLogger())

	_, err := r.Resolve(context.Background(), "unknown.example.com")
	assert.ErrorIs(t, err, domain.ErrSiteNotConfigured)
}

func TestResolveCachesPositiveLookups(t *testing.T) {
	store := &countingStore{inner: NewStaticStore(testEntries())}
	r := NewResolver(store, time.Minute, logger.NewTestLogger())

	for i := 0; i < 5; i++ {
		_, err := r.Resolve(context.Background(), "es.example.com")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), store.calls.Load())
}

func TestResolveCachesNegativeLookups(t *testing.T) {
	store := &countingStore{inner: NewStaticStore(testEntries())}
	r := NewResolver(store, time.Minute, logger.NewTestLogger())

	for i := 0; i < 5; i++ {
		_, err := r.Resolve(context.Background(), "unknown.example.com")
		assert.ErrorIs(t, err, domain.ErrSiteNotConfigured)
	}
	assert.Equal(t, int64(1), store.calls.Load())
}

func TestInvalidateFlushesCache(t *testing.T) {
	store := &countingStore{inner: NewStaticStore(testEntries())}
	r := NewResolver(store, time.Minute, logger.NewTestLogger())

	_, _ = r.Resolve(context.Background(), "es.example.com")
	r.Invalidate()
	_, _ = r.Resolve(context.Background(), "es.example.com")

	assert.Equal(t, int64(2), store.calls.Load())
}
