package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStoreWithClient(client, "pl")
}

func TestRedisLookupAndUpsert(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, "site-1", "es", []domain.TranslationRecord{
		{Hash: "h1", Translated: "Hola"},
		{Hash: "h2", Translated: "Mundo"},
	})
	require.NoError(t, err)

	got, err := s.Lookup(ctx, "site-1", "es", []string{"h1", "h2", "h3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"h1": "Hola", "h2": "Mundo"}, got)
}

func TestRedisUpsertFirstWins(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "site-1", "es", []domain.TranslationRecord{{Hash: "h1", Translated: "Hola"}}))
	require.NoError(t, s.Upsert(ctx, "site-1", "es", []domain.TranslationRecord{{Hash: "h1", Translated: "Buenas"}}))

	got, err := s.Lookup(ctx, "site-1", "es", []string{"h1"})
	require.NoError(t, err)
	assert.Equal(t, "Hola", got["h1"])
}

func TestRedisLookupIsolatedBySiteAndLang(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "site-1", "es", []domain.TranslationRecord{{Hash: "h1", Translated: "Hola"}}))

	got, err := s.Lookup(ctx, "site-2", "es", []string{"h1"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Lookup(ctx, "site-1", "fr", []string{"h1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisPathnamesBidirectional(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	err := s.UpsertPathnames(ctx, "site-1", "es", []domain.PathnameRecord{
		{Original: "/about-us", Translated: "/sobre-nosotros"},
	})
	require.NoError(t, err)

	fwd, err := s.LookupPathnames(ctx, "site-1", "es", []string{"/about-us", "/missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/about-us": "/sobre-nosotros"}, fwd)

	rev, err := s.LookupReverse(ctx, "site-1", "es", "/sobre-nosotros")
	require.NoError(t, err)
	assert.Equal(t, "/about-us", rev)

	rev, err = s.LookupReverse(ctx, "site-1", "es", "/unknown")
	require.NoError(t, err)
	assert.Empty(t, rev)
}

func TestRedisViews(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrementViews(ctx, "site-1", "/about"))
	require.NoError(t, s.IncrementViews(ctx, "site-1", "/about"))

	n, err := s.Views(ctx, "site-1", "/about")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRedisEmptyBatches(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	got, err := s.Lookup(ctx, "site-1", "es", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Upsert(ctx, "site-1", "es", nil))
	require.NoError(t, s.Touch(ctx, "site-1", "es", nil))
}
