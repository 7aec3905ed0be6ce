package ports

import (
	"context"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

// InflightRegistry enforces at-most-one concurrent translation per
// (site, lang, hash) across overlapping requests.
type InflightRegistry interface {
	// CheckAndSet registers the key and reports whether it was already
	// present (and not expired).
	CheckAndSet(key domain.InFlightKey) bool
	Delete(key domain.InFlightKey)
	Len() int
}

// TaskQueue runs fire-and-forget work that outlives the request. Enqueue
// never blocks the caller; when the queue is full the task is dropped and
// counted. Shutdown drains with a grace deadline.
type TaskQueue interface {
	Enqueue(name string, task func(ctx context.Context)) bool
	Shutdown(ctx context.Context)
}

// SiteResolver maps an inbound hostname (port stripped) to a site config.
type SiteResolver interface {
	Resolve(ctx context.Context, hostname string) (*domain.SiteConfig, error)
}
