package stats

import (
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/core/ports"
)

// Collector is the lock-free counter set behind the status endpoint.
// Striped counters keep the hot path cheap under concurrent requests.
type Collector struct {
	totalRequests      *xsync.Counter
	proxiedPassthrough *xsync.Counter
	translatedPages    *xsync.Counter
	deferredPages      *xsync.Counter
	segmentsExtracted  *xsync.Counter
	cacheHits          *xsync.Counter
	cacheMisses        *xsync.Counter
	backgroundJobs     *xsync.Counter
	droppedJobs        *xsync.Counter
	providerRequests   *xsync.Counter
	promptTokens       *xsync.Counter
	completionTokens   *xsync.Counter
}

func NewCollector() *Collector {
	return &Collector{
		totalRequests:      xsync.NewCounter(),
		proxiedPassthrough: xsync.NewCounter(),
		translatedPages:    xsync.NewCounter(),
		deferredPages:      xsync.NewCounter(),
		segmentsExtracted:  xsync.NewCounter(),
		cacheHits:          xsync.NewCounter(),
		cacheMisses:        xsync.NewCounter(),
		backgroundJobs:     xsync.NewCounter(),
		droppedJobs:        xsync.NewCounter(),
		providerRequests:   xsync.NewCounter(),
		promptTokens:       xsync.NewCounter(),
		completionTokens:   xsync.NewCounter(),
	}
}

func (c *Collector) RecordRequest() {
	c.totalRequests.Inc()
}

func (c *Collector) RecordPassthrough() {
	c.proxiedPassthrough.Inc()
}

func (c *Collector) RecordTranslatedPage(deferred bool) {
	c.translatedPages.Inc()
	if deferred {
		c.deferredPages.Inc()
	}
}

func (c *Collector) RecordSegments(extracted, hits, misses int) {
	c.segmentsExtracted.Add(int64(extracted))
	c.cacheHits.Add(int64(hits))
	c.cacheMisses.Add(int64(misses))
}

func (c *Collector) RecordBackgroundJob(dropped bool) {
	c.backgroundJobs.Inc()
	if dropped {
		c.droppedJobs.Inc()
	}
}

func (c *Collector) RecordUsage(usage domain.TranslatorUsage) {
	c.providerRequests.Add(usage.Requests)
	c.promptTokens.Add(usage.PromptTokens)
	c.completionTokens.Add(usage.CompletionTokens)
}

func (c *Collector) Snapshot() ports.StatsSnapshot {
	return ports.StatsSnapshot{
		TotalRequests:      c.totalRequests.Value(),
		ProxiedPassthrough: c.proxiedPassthrough.Value(),
		TranslatedPages:    c.translatedPages.Value(),
		DeferredPages:      c.deferredPages.Value(),
		SegmentsExtracted:  c.segmentsExtracted.Value(),
		CacheHits:          c.cacheHits.Value(),
		CacheMisses:        c.cacheMisses.Value(),
		BackgroundJobs:     c.backgroundJobs.Value(),
		DroppedJobs:        c.droppedJobs.Value(),
		ProviderRequests:   c.providerRequests.Value(),
		PromptTokens:       c.promptTokens.Value(),
		CompletionTokens:   c.completionTokens.Value(),
	}
}
