package ports

import "github.com/pantolingo/pantolingo/internal/core/domain"

// StatsSnapshot is a point-in-time view of the collector counters.
type StatsSnapshot struct {
	TotalRequests      int64 `json:"total_requests"`
	ProxiedPassthrough int64 `json:"proxied_passthrough"`
	TranslatedPages    int64 `json:"translated_pages"`
	DeferredPages      int64 `json:"deferred_pages"`
	SegmentsExtracted  int64 `json:"segments_extracted"`
	CacheHits          int64 `json:"cache_hits"`
	CacheMisses        int64 `json:"cache_misses"`
	BackgroundJobs     int64 `json:"background_jobs"`
	DroppedJobs        int64 `json:"dropped_jobs"`
	ProviderRequests   int64 `json:"provider_requests"`
	PromptTokens       int64 `json:"prompt_tokens"`
	CompletionTokens   int64 `json:"completion_tokens"`
}

// StatsCollector aggregates process-wide counters. Implementations must be
// safe for concurrent use on the hot path.
type StatsCollector interface {
	RecordRequest()
	RecordPassthrough()
	RecordTranslatedPage(deferred bool)
	RecordSegments(extracted, hits, misses int)
	RecordBackgroundJob(dropped bool)
	RecordUsage(usage domain.TranslatorUsage)
	Snapshot() StatsSnapshot
}
