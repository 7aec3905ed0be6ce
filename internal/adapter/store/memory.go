package store

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

// MemoryStore is the in-process fallback used when no redis address is
// configured, and the workhorse for tests. Translations survive only for
// the life of the process.
type MemoryStore struct {
	translations *xsync.Map[string, string]
	lastUsed     *xsync.Map[string, int64]
	pathsForward *xsync.Map[string, string]
	pathsReverse *xsync.Map[string, string]
	views        *xsync.Map[string, *xsync.Counter]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		translations: xsync.NewMap[string, string](),
		lastUsed:     xsync.NewMap[string, int64](),
		pathsForward: xsync.NewMap[string, string](),
		pathsReverse: xsync.NewMap[string, string](),
		views:        xsync.NewMap[string, *xsync.Counter](),
	}
}

func key3(a, b, c string) string { return a + ":" + b + ":" + c }

func (s *MemoryStore) Lookup(_ context.Context, siteID, lang string, hashes []string) (map[string]string, error) {
	out := make(map[string]string, len(hashes))
	for _, h := range hashes {
		if v, ok := s.translations.Load(key3(siteID, lang, h)); ok {
			out[h] = v
		}
	}
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, siteID, lang string, records []domain.TranslationRecord) error {
	for _, rec := range records {
		// First translation wins; later writes are no-ops.
		s.translations.LoadOrStore(key3(siteID, lang, rec.Hash), rec.Translated)
	}
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, siteID, lang string, hashes []string) error {
	now := time.Now().Unix()
	for _, h := range hashes {
		s.lastUsed.Store(key3(siteID, lang, h), now)
	}
	return nil
}

func (s *MemoryStore) LookupPathnames(_ context.Context, siteID, lang string, originals []string) (map[string]string, error) {
	out := make(map[string]string, len(originals))
	for _, p := range originals {
		if v, ok := s.pathsForward.Load(key3(siteID, lang, p)); ok {
			out[p] = v
		}
	}
	return out, nil
}

func (s *MemoryStore) LookupReverse(_ context.Context, siteID, lang, translated string) (string, error) {
	v, _ := s.pathsReverse.Load(key3(siteID, lang, translated))
	return v, nil
}

func (s *MemoryStore) UpsertPathnames(_ context.Context, siteID, lang string, records []domain.PathnameRecord) error {
	for _, rec := range records {
		s.pathsForward.LoadOrStore(key3(siteID, lang, rec.Original), rec.Translated)
		s.pathsReverse.LoadOrStore(key3(siteID, lang, rec.Translated), rec.Original)
	}
	return nil
}

func (s *MemoryStore) IncrementViews(_ context.Context, siteID, path string) error {
	counter, _ := s.views.LoadOrCompute(siteID+":"+path, func() (*xsync.Counter, bool) {
		return xsync.NewCounter(), false
	})
	counter.Inc()
	return nil
}

func (s *MemoryStore) Views(_ context.Context, siteID, path string) (int64, error) {
	counter, ok := s.views.Load(siteID + ":" + path)
	if !ok {
		return 0, nil
	}
	return counter.Value(), nil
}
