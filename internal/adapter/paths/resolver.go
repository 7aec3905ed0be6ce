package paths

import (
	"context"

	"github.com/pantolingo/pantolingo/internal/adapter/cache"
	"github.com/pantolingo/pantolingo/internal/adapter/codec"
	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/util"
)

// Candidate is a pathname prepared for translation: the raw form as seen
// in a URL or document, plus the codec-normalised form used as the cache
// key and the replacement table needed to denormalise a stored result.
type Candidate struct {
	Raw        string
	Normalised string
	patterns   codec.PatternResult
}

// Denormalise substitutes this path's captured values back into a stored
// normalised counterpart.
func (c Candidate) Denormalise(stored string) string {
	return codec.RestorePatterns(stored, c.patterns.Replacements, c.patterns.IsUpperCase)
}

// Resolved is the outcome of reverse resolution for an inbound request path.
type Resolved struct {
	// OriginPath is the path to request from the origin.
	OriginPath string
	// Normalised is the codec-normalised original form, used for cache
	// accounting regardless of which direction matched.
	Normalised string
	// Translated reports whether the inbound path matched a stored
	// translated form.
	Translated bool
}

// Resolver maps request paths between their original and translated forms
// using the bidirectional pathname cache.
type Resolver struct {
	cache *cache.PathnameCache
}

func NewResolver(pathnames *cache.PathnameCache) *Resolver {
	return &Resolver{cache: pathnames}
}

// Normalise builds a Candidate for a raw path. Trailing slashes are
// trimmed first so "/about/" and "/about" share one cache entry.
func Normalise(raw string, skipWords []string) Candidate {
	trimmed := util.NormalisePath(raw)
	res := codec.ApplyPatterns(trimmed, skipWords)
	return Candidate{Raw: raw, Normalised: res.Normalised, patterns: res}
}

// Resolve decides which origin path an inbound request maps to. Reverse
// resolution runs unconditionally, independent of the site's forward
// translation setting, so bookmarked translated URLs keep working. The
// root path is never translated in either direction.
func (r *Resolver) Resolve(ctx context.Context, site *domain.SiteConfig, inbound string) Resolved {
	cand := Normalise(inbound, site.SkipWords)
	if cand.Normalised == "/" {
		return Resolved{OriginPath: inbound, Normalised: "/"}
	}

	original := r.cache.Reverse(ctx, site.ID, site.TargetLang, cand.Normalised)
	if original == "" {
		return Resolved{OriginPath: inbound, Normalised: cand.Normalised}
	}
	return Resolved{
		OriginPath: cand.Denormalise(original),
		Normalised: original,
		Translated: true,
	}
}

// ForwardLookup translates link paths using stored records only. It
// returns raw-to-raw translations for the hits and the Candidates that
// missed, so the caller can hand the misses to the translator. When the
// site has path translation disabled both results are empty.
func (r *Resolver) ForwardLookup(ctx context.Context, site *domain.SiteConfig, raws []string) (map[string]string, []Candidate) {
	translated := map[string]string{}
	if !site.TranslatePaths || len(raws) == 0 {
		return translated, nil
	}

	candidates := make([]Candidate, 0, len(raws))
	keys := make([]string, 0, len(raws))
	seen := map[string]struct{}{}
	for _, raw := range raws {
		cand := Normalise(raw, site.SkipWords)
		if cand.Normalised == "/" {
			continue
		}
		candidates = append(candidates, cand)
		if _, dup := seen[cand.Normalised]; !dup {
			seen[cand.Normalised] = struct{}{}
			keys = append(keys, cand.Normalised)
		}
	}
	if len(keys) == 0 {
		return translated, nil
	}

	hits := r.cache.Lookup(ctx, site.ID, site.TargetLang, keys)

	var missing []Candidate
	missed := map[string]struct{}{}
	for _, cand := range candidates {
		stored, ok := hits[cand.Normalised]
		if !ok {
			if _, dup := missed[cand.Normalised]; !dup {
				missed[cand.Normalised] = struct{}{}
				missing = append(missing, cand)
			}
			continue
		}
		translated[cand.Raw] = cand.Denormalise(stored)
	}
	return translated, missing
}
