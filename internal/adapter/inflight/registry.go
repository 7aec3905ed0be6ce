package inflight

import (
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

const (
	DefaultTTL         = 90 * time.Second
	defaultSweepPeriod = 30 * time.Second
)

// Registry is the process-local in-flight set: at most one concurrent
// translation per (site, lang, hash). Entries expire by TTL so a crashed
// worker just means a later request reissues the translation.
type Registry struct {
	entries *xsync.Map[string, int64]
	ttl     time.Duration
	ticker  *time.Ticker
	done    chan struct{}
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		entries: xsync.NewMap[string, int64](),
		ttl:     ttl,
		ticker:  time.NewTicker(defaultSweepPeriod),
		done:    make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

// CheckAndSet registers the key and reports whether a live registration
// already existed. The LoadOrStore is the atomicity point: between two
// racing requests exactly one sees false.
func (r *Registry) CheckAndSet(key domain.InFlightKey) bool {
	now := time.Now().UnixNano()
	deadline := now - r.ttl.Nanoseconds()

	stored, loaded := r.entries.LoadOrStore(key.String(), now)
	if !loaded {
		return false
	}
	if stored < deadline {
		// Expired entry: take it over.
		r.entries.Store(key.String(), now)
		return false
	}
	return true
}

func (r *Registry) Delete(key domain.InFlightKey) {
	r.entries.Delete(key.String())
}

func (r *Registry) Len() int {
	return r.entries.Size()
}

func (r *Registry) Close() {
	r.ticker.Stop()
	close(r.done)
}

func (r *Registry) sweepLoop() {
	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C:
			deadline := time.Now().UnixNano() - r.ttl.Nanoseconds()
			r.entries.Range(func(k string, stored int64) bool {
				if stored < deadline {
					r.entries.Delete(k)
				}
				return true
			})
		}
	}
}
