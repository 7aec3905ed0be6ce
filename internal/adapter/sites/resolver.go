package sites

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/core/ports"
	"github.com/pantolingo/pantolingo/internal/logger"
	"github.com/pantolingo/pantolingo/internal/util"
)

const DefaultTTL = 60 * time.Second

// negative is the cached marker for hostnames with no configuration.
// Caching misses too keeps an unknown-host storm off the store.
type negative struct{}

// Resolver maps inbound hostnames to site configs through a TTL cache over
// the site store, with singleflight collapsing concurrent misses.
type Resolver struct {
	store  ports.SiteStore
	cache  *gocache.Cache
	group  singleflight.Group
	logger *logger.StyledLogger
}

func NewResolver(store ports.SiteStore, ttl time.Duration, log *logger.StyledLogger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		store:  store,
		cache:  gocache.New(ttl, 2*ttl),
		logger: log,
	}
}

// Resolve strips any port suffix and returns the site config for the
// hostname, or domain.ErrSiteNotConfigured.
func (r *Resolver) Resolve(ctx context.Context, hostname string) (*domain.SiteConfig, error) {
	host := util.StripPort(hostname)

	if cached, ok := r.cache.Get(host); ok {
		if _, miss := cached.(negative); miss {
			return nil, domain.ErrSiteNotConfigured
		}
		return cached.(*domain.SiteConfig), nil
	}

	v, err, _ := r.group.Do(host, func() (interface{}, error) {
		site, err := r.store.GetByHostname(ctx, host)
		if err != nil {
			if errors.Is(err, domain.ErrSiteNotConfigured) {
				r.cache.Set(host, negative{}, gocache.DefaultExpiration)
			}
			return nil, err
		}
		r.cache.Set(host, site, gocache.DefaultExpiration)
		return site, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.SiteConfig), nil
}

// Invalidate clears the cache, typically after a config hot reload.
func (r *Resolver) Invalidate() {
	r.cache.Flush()
}
