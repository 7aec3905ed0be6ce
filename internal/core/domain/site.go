package domain

import "time"

// SiteConfig is the resolved configuration for one translated hostname.
type SiteConfig struct {
	ID               string
	Hostname         string
	OriginHostname   string
	OriginScheme     string
	SourceLang       string
	TargetLang       string
	SkipWords        []string
	SkipSelectors    []string
	SkipPathPatterns []string
	TranslatePaths   bool
	Deferred         bool

	// While set in the future, responses carry a no-store directive. The
	// translation cache itself is still consulted.
	CacheDisabledUntil time.Time
}

// CacheDisabled reports whether browser caching is currently suppressed.
func (s *SiteConfig) CacheDisabled(now time.Time) bool {
	return !s.CacheDisabledUntil.IsZero() && now.Before(s.CacheDisabledUntil)
}

// Scheme returns the origin scheme, defaulting to https.
func (s *SiteConfig) Scheme() string {
	if s.OriginScheme == "" {
		return "https"
	}
	return s.OriginScheme
}
