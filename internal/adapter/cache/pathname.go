package cache

import (
	"context"

	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/core/ports"
	"github.com/pantolingo/pantolingo/internal/logger"
)

// PathnameCache wraps the pathname store with the same fail-open policy as
// the translation cache.
type PathnameCache struct {
	store  ports.PathnameStore
	logger *logger.StyledLogger
}

func NewPathnameCache(store ports.PathnameStore, log *logger.StyledLogger) *PathnameCache {
	return &PathnameCache{store: store, logger: log}
}

// Lookup batch-translates normalised original paths to their stored
// translated forms. Misses are simply absent from the map.
func (c *PathnameCache) Lookup(ctx context.Context, siteID, lang string, originals []string) map[string]string {
	if len(originals) == 0 {
		return map[string]string{}
	}
	hits, err := c.store.LookupPathnames(ctx, siteID, lang, originals)
	if err != nil {
		c.logger.Warn("pathname cache lookup failed, treating as miss", "site", siteID, "error", err)
		return map[string]string{}
	}
	return hits
}

// Reverse maps a normalised translated path back to its original, or ""
// when unknown.
func (c *PathnameCache) Reverse(ctx context.Context, siteID, lang, translated string) string {
	original, err := c.store.LookupReverse(ctx, siteID, lang, translated)
	if err != nil {
		c.logger.Warn("pathname reverse lookup failed", "site", siteID, "path", translated, "error", err)
		return ""
	}
	return original
}

// Upsert persists pathname pairs in both directions.
func (c *PathnameCache) Upsert(ctx context.Context, siteID, lang string, records []domain.PathnameRecord) {
	if len(records) == 0 {
		return
	}
	if err := c.store.UpsertPathnames(ctx, siteID, lang, records); err != nil {
		c.logger.Warn("pathname cache upsert failed", "site", siteID, "count", len(records), "error", err)
	}
}

// IncrementViews bumps the per-path view counter.
func (c *PathnameCache) IncrementViews(ctx context.Context, siteID, path string) {
	if err := c.store.IncrementViews(ctx, siteID, path); err != nil {
		c.logger.Debug("view counter increment failed", "site", siteID, "path", path, "error", err)
	}
}
