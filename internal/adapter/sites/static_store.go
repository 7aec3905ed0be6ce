package sites

import (
	"context"
	"sync"

	"github.com/pantolingo/pantolingo/internal/config"
	"github.com/pantolingo/pantolingo/internal/core/domain"
)

// StaticStore serves site configurations from the YAML config. Replace
// swaps the whole set atomically on config hot reload.
type StaticStore struct {
	mu    sync.RWMutex
	sites map[string]*domain.SiteConfig
}

func NewStaticStore(entries []config.SiteEntry) *StaticStore {
	s := &StaticStore{}
	s.Replace(entries)
	return s
}

func (s *StaticStore) Replace(entries []config.SiteEntry) {
	sites := make(map[string]*domain.SiteConfig, len(entries))
	for _, e := range entries {
		sites[e.Hostname] = &domain.SiteConfig{
			ID:                 e.ID,
			Hostname:           e.Hostname,
			OriginHostname:     e.OriginHostname,
			OriginScheme:       e.OriginScheme,
			SourceLang:         e.SourceLang,
			TargetLang:         e.TargetLang,
			SkipWords:          e.SkipWords,
			SkipSelectors:      e.SkipSelectors,
			SkipPathPatterns:   e.SkipPathPatterns,
			TranslatePaths:     e.TranslatePaths,
			Deferred:           e.Deferred,
			CacheDisabledUntil: e.CacheDisabledTil,
		}
	}

	s.mu.Lock()
	s.sites = sites
	s.mu.Unlock()
}

func (s *StaticStore) GetByHostname(_ context.Context, hostname string) (*domain.SiteConfig, error) {
	s.mu.RLock()
	site, ok := s.sites[hostname]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSiteNotConfigured
	}
	return site, nil
}
