package cache

import (
	"context"

	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/core/ports"
	"github.com/pantolingo/pantolingo/internal/logger"
	"github.com/pantolingo/pantolingo/internal/util"
)

// TranslationCache wraps the translation store with the fail-open policy:
// read errors degrade to a cache miss, write errors are logged and dropped.
// A broken database slows the product down; it never takes it offline.
type TranslationCache struct {
	store  ports.TranslationStore
	logger *logger.StyledLogger
}

func NewTranslationCache(store ports.TranslationStore, log *logger.StyledLogger) *TranslationCache {
	return &TranslationCache{store: store, logger: log}
}

// LookupValues hashes the normalised values and fetches any stored
// translations in one batched round trip. The returned slice holds the
// hash for each input value, in input order.
func (c *TranslationCache) LookupValues(ctx context.Context, siteID, lang string, values []string) (map[string]string, []string) {
	hashes := util.HashAll(values)
	return c.LookupHashes(ctx, siteID, lang, hashes), hashes
}

// LookupHashes is the poll-endpoint variant: the caller already has hashes.
func (c *TranslationCache) LookupHashes(ctx context.Context, siteID, lang string, hashes []string) map[string]string {
	if len(hashes) == 0 {
		return map[string]string{}
	}
	hits, err := c.store.Lookup(ctx, siteID, lang, hashes)
	if err != nil {
		c.logger.Warn("translation cache lookup failed, treating as miss", "site", siteID, "error", err)
		return map[string]string{}
	}
	return hits
}

// Upsert persists new translations. Conflicts are no-ops in the store;
// errors are logged only.
func (c *TranslationCache) Upsert(ctx context.Context, siteID, lang string, records []domain.TranslationRecord) {
	if len(records) == 0 {
		return
	}
	if err := c.store.Upsert(ctx, siteID, lang, records); err != nil {
		c.logger.Warn("translation cache upsert failed", "site", siteID, "count", len(records), "error", err)
	}
}

// Touch refreshes last-used accounting for the given hashes.
func (c *TranslationCache) Touch(ctx context.Context, siteID, lang string, hashes []string) {
	if len(hashes) == 0 {
		return
	}
	if err := c.store.Touch(ctx, siteID, lang, hashes); err != nil {
		c.logger.Debug("translation cache touch failed", "site", siteID, "error", err)
	}
}
