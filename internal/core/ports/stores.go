package ports

import (
	"context"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

// SiteStore resolves a hostname to its site configuration. Implementations
// must return domain.ErrSiteNotConfigured for unknown hosts.
type SiteStore interface {
	GetByHostname(ctx context.Context, hostname string) (*domain.SiteConfig, error)
}

// TranslationStore persists translated segments keyed by content hash.
// Upsert must treat conflicts on (site, hash) as no-ops: the stored
// translation wins and updates are an explicit admin action elsewhere.
type TranslationStore interface {
	Lookup(ctx context.Context, siteID, lang string, hashes []string) (map[string]string, error)
	Upsert(ctx context.Context, siteID, lang string, records []domain.TranslationRecord) error

	// Touch refreshes last-used accounting for cache hits. Failures are
	// advisory only.
	Touch(ctx context.Context, siteID, lang string, hashes []string) error
}

// PathnameStore persists the bidirectional pathname map. LookupReverse
// returns "" (no error) when the translated path is unknown.
type PathnameStore interface {
	LookupPathnames(ctx context.Context, siteID, lang string, originals []string) (map[string]string, error)
	LookupReverse(ctx context.Context, siteID, lang, translated string) (string, error)
	UpsertPathnames(ctx context.Context, siteID, lang string, records []domain.PathnameRecord) error
	IncrementViews(ctx context.Context, siteID, path string) error
}
