package services

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/pantolingo/pantolingo/internal/adapter/cache"
	"github.com/pantolingo/pantolingo/internal/adapter/extract"
	"github.com/pantolingo/pantolingo/internal/adapter/fetcher"
	"github.com/pantolingo/pantolingo/internal/adapter/paths"
	"github.com/pantolingo/pantolingo/internal/config"
	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/core/ports"
	"github.com/pantolingo/pantolingo/internal/logger"
	"github.com/pantolingo/pantolingo/internal/util"
)

const notConfiguredPage = `<!DOCTYPE html>
<html>
<head><title>Site not configured</title></head>
<body>
<h1>This hostname is not configured</h1>
<p>The requested hostname is not registered with this translation proxy.</p>
</body>
</html>`

// Orchestrator drives one request through the pipeline: site resolution,
// path resolution, origin fetch, extraction, cache merge, translation,
// application and response. All recoverable failures degrade to serving
// the origin's bytes.
type Orchestrator struct {
	sites       ports.SiteResolver
	paths       *paths.Resolver
	fetcher     *fetcher.Fetcher
	extractor   *extract.Extractor
	applicator  *extract.Applicator
	segments    *cache.TranslationCache
	pathnames   *cache.PathnameCache
	translator  ports.Translator
	inflight    ports.InflightRegistry
	tasks       ports.TaskQueue
	stats       ports.StatsCollector
	deferredCfg config.DeferredConfig
	logger      *logger.StyledLogger
}

func NewOrchestrator(
	sites ports.SiteResolver,
	pathResolver *paths.Resolver,
	origin *fetcher.Fetcher,
	extractor *extract.Extractor,
	applicator *extract.Applicator,
	segments *cache.TranslationCache,
	pathnames *cache.PathnameCache,
	translator ports.Translator,
	inflight ports.InflightRegistry,
	tasks ports.TaskQueue,
	stats ports.StatsCollector,
	deferredCfg config.DeferredConfig,
	log *logger.StyledLogger,
) *Orchestrator {
	return &Orchestrator{
		sites:       sites,
		paths:       pathResolver,
		fetcher:     origin,
		extractor:   extractor,
		applicator:  applicator,
		segments:    segments,
		pathnames:   pathnames,
		translator:  translator,
		inflight:    inflight,
		tasks:       tasks,
		stats:       stats,
		deferredCfg: deferredCfg,
		logger:      log,
	}
}

// ServeHTTP is the catch-all proxy handler.
func (o *Orchestrator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	o.stats.RecordRequest()

	site, err := o.sites.Resolve(r.Context(), r.Host)
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(notConfiguredPage))
		return
	}

	resolved := o.paths.Resolve(r.Context(), site, r.URL.Path)

	fetchStart := time.Now()
	result, err := o.fetcher.Fetch(r.Context(), site, resolved.OriginPath, r)
	if err != nil {
		o.logger.WarnWithHost("origin fetch failed", site.OriginHostname, "path", resolved.OriginPath, "error", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	fetchElapsed := time.Since(fetchStart)

	// Origin 5xx bodies are not worth translating or forwarding; they get
	// the same short answer as a transport failure.
	if result.StatusCode >= http.StatusInternalServerError {
		if result.Stream != nil {
			_ = result.Stream.Close()
		}
		o.logger.WarnWithHost("origin returned server error", site.OriginHostname, "path", resolved.OriginPath, "status", result.StatusCode)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	copyHeader(w.Header(), result.Header)

	if result.RedirectLocation != "" {
		w.Header().Set("Location", result.RedirectLocation)
		w.WriteHeader(result.StatusCode)
		return
	}

	if !result.IsHTML {
		o.stats.RecordPassthrough()
		w.WriteHeader(result.StatusCode)
		if result.Stream != nil {
			if err := o.fetcher.CopyStream(w, result.Stream); err != nil {
				o.logger.Debug("passthrough copy interrupted", "path", resolved.OriginPath, "error", err)
			}
		}
		return
	}

	if o.pathSkipped(site, resolved.Normalised) {
		o.stats.RecordPassthrough()
		o.writeHTML(w, result.StatusCode, result.Body)
		return
	}

	page, summary := o.translatePage(r.Context(), site, resolved, result.Body)
	if summary.failed {
		w.Header().Set("X-Error", "Translation failed")
	}
	if site.CacheDisabled(time.Now()) {
		w.Header().Set("Cache-Control", "no-store")
	}
	o.writeHTML(w, result.StatusCode, page)

	o.logger.InfoWithHost("served", site.Hostname,
		"lang", site.TargetLang,
		"path", r.URL.Path,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"fetch", fetchElapsed.Round(time.Millisecond),
		"segments", summary.segments,
		"cache_hits", summary.hits,
		"translated", summary.translated,
		"pending", summary.pending,
		"paths", summary.pathCount,
		"translate_elapsed", summary.translateElapsed.Round(time.Millisecond),
		"deferred", summary.deferred,
	)
}

type pageSummary struct {
	segments         int
	hits             int
	translated       int
	pending          int
	pathCount        int
	translateElapsed time.Duration
	deferred         bool
	failed           bool
}

// translatePage runs the HTML pipeline over the fetched body. Whatever
// goes wrong, the returned bytes are always servable: the original body is
// the universal fallback.
func (o *Orchestrator) translatePage(ctx context.Context, site *domain.SiteConfig, resolved paths.Resolved, body []byte) ([]byte, pageSummary) {
	var summary pageSummary

	doc, err := extract.ParseDocument(body)
	if err != nil {
		o.logger.Debug("unparseable document, serving origin body", "path", resolved.Normalised, "error", err)
		return body, summary
	}

	extraction := o.extractor.Extract(doc, site)
	summary.segments = len(extraction.Segments)

	// CacheDisabledUntil only governs the downstream Cache-Control header;
	// the translation cache is a cost mechanism, not a freshness one, so it
	// stays in the loop regardless.
	values := extraction.Values()
	cached, hashes := o.segments.LookupValues(ctx, site.ID, site.TargetLang, values)

	missing := o.collectMisses(extraction, cached, hashes)
	summary.hits = len(extraction.Segments) - len(missing.indices)
	o.stats.RecordSegments(len(extraction.Segments), summary.hits, len(missing.indices))

	deferred := site.Deferred && o.deferredCfg.Enabled && len(missing.indices) > 0
	summary.deferred = deferred

	linkPaths := collectLinkPaths(doc, site)
	pathHits, pathMissing := o.paths.ForwardLookup(ctx, site, append(linkPaths, resolved.Normalised))

	translations := make([]domain.Translation, len(extraction.Segments))
	for i := range extraction.Segments {
		if text, ok := cached[hashes[i]]; ok {
			translations[i] = domain.ReadyTranslation(text)
		} else {
			translations[i] = domain.PendingTranslation(hashes[i])
		}
	}

	var newRecords []domain.TranslationRecord
	var newPathRecords []domain.PathnameRecord
	if deferred {
		o.dispatchBackground(site, missing, pathMissing)
		summary.pending = len(missing.indices)
	} else if len(missing.indices) > 0 || len(pathMissing) > 0 {
		translateStart := time.Now()
		newTexts, newPaths, err := o.translateSync(ctx, site, missing, pathMissing)
		summary.translateElapsed = time.Since(translateStart)
		if err != nil {
			o.logger.WarnWithHost("translation failed, serving origin body", site.Hostname, "error", err)
			summary.failed = true
			return body, summary
		}
		for j, idx := range missing.indices {
			translations[idx] = domain.ReadyTranslation(newTexts[j])
			newRecords = append(newRecords, domain.TranslationRecord{Hash: hashes[idx], Translated: newTexts[j]})
		}
		summary.translated = len(missing.indices)
		for i, translated := range newPaths {
			cand := pathMissing[i]
			pathHits[cand.Raw] = cand.Denormalise(translated)
			newPathRecords = append(newPathRecords, domain.PathnameRecord{
				Original:   cand.Normalised,
				Translated: translated,
			})
		}
	}

	applied, err := o.applicator.Apply(extraction, translations)
	if err != nil {
		o.logger.Error("apply failed, serving origin body", "error", err)
		return body, summary
	}

	rewriteLinks(doc, site, pathHits)
	summary.pathCount = len(pathHits)
	addLanguageMetadata(doc, site)

	if deferred {
		injectDeferredBootstrap(doc, site, applied.Pending, o.deferredCfg)
	}

	out, err := extract.Render(doc)
	if err != nil {
		o.logger.Error("render failed, serving origin body", "error", err)
		return body, summary
	}

	o.stats.RecordTranslatedPage(deferred)
	o.scheduleWrites(site, resolved, newRecords, newPathRecords, hashesInUse(hashes, cached))
	return out, summary
}

// missingSegments tracks cache misses two ways: indices into the segment
// slice for reassembly, and a deduplicated value/hash list for the
// translator.
type missingSegments struct {
	indices      []int
	perIndexHash []string
	values       []string
	hashes       []string
}

func (o *Orchestrator) collectMisses(ex *extract.Extraction, cached map[string]string, hashes []string) missingSegments {
	var m missingSegments
	seen := map[string]struct{}{}
	for i, seg := range ex.Segments {
		if _, ok := cached[hashes[i]]; ok {
			continue
		}
		m.indices = append(m.indices, i)
		m.perIndexHash = append(m.perIndexHash, hashes[i])
		if _, dup := seen[hashes[i]]; !dup {
			seen[hashes[i]] = struct{}{}
			m.values = append(m.values, seg.Value)
			m.hashes = append(m.hashes, hashes[i])
		}
	}
	return m
}

// translateSync fans out the two translation tasks and waits for both.
// Segment failure is fatal for the translated response; pathname failure
// only costs link rewriting. The second return value is index-aligned
// with pathMissing, nil when pathname translation was skipped or failed.
func (o *Orchestrator) translateSync(ctx context.Context, site *domain.SiteConfig, missing missingSegments, pathMissing []paths.Candidate) ([]string, []string, error) {
	var segTexts []string
	var newPaths []string

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if len(missing.values) == 0 {
			return nil
		}
		texts, err := o.translator.Translate(gctx, site, missing.values)
		if err != nil {
			return err
		}
		segTexts = texts
		return nil
	})

	g.Go(func() error {
		if len(pathMissing) == 0 {
			return nil
		}
		values := make([]string, len(pathMissing))
		for i, cand := range pathMissing {
			values[i] = cand.Normalised
		}
		translated, err := o.translator.Translate(gctx, site, values)
		if err != nil {
			o.logger.Warn("pathname translation failed, links pass through", "site", site.ID, "error", err)
			return nil
		}
		newPaths = translated
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Expand per-unique-hash results back to per-miss-index order.
	byHash := make(map[string]string, len(missing.hashes))
	for i, h := range missing.hashes {
		byHash[h] = segTexts[i]
	}
	out := make([]string, len(missing.indices))
	for j := range missing.indices {
		out[j] = byHash[missing.perIndexHash[j]]
	}
	return out, newPaths, nil
}

// dispatchBackground registers missing work in the in-flight set and hands
// it to the worker pool. First registration wins; overlapping requests
// skip dispatch.
func (o *Orchestrator) dispatchBackground(site *domain.SiteConfig, missing missingSegments, pathMissing []paths.Candidate) {
	var values, hashes []string
	for i, h := range missing.hashes {
		key := domain.InFlightKey{SiteID: site.ID, TargetLang: site.TargetLang, Hash: h}
		if o.inflight.CheckAndSet(key) {
			continue
		}
		values = append(values, missing.values[i])
		hashes = append(hashes, h)
	}
	if len(values) > 0 {
		o.enqueueSegmentJob(site, values, hashes)
	}

	var pathCands []paths.Candidate
	for _, cand := range pathMissing {
		key := domain.InFlightKey{SiteID: site.ID, TargetLang: site.TargetLang, Hash: util.Hash(cand.Normalised)}
		if o.inflight.CheckAndSet(key) {
			continue
		}
		pathCands = append(pathCands, cand)
	}
	if len(pathCands) > 0 {
		o.enqueuePathJob(site, pathCands)
	}
}

func (o *Orchestrator) enqueueSegmentJob(site *domain.SiteConfig, values, hashes []string) {
	release := func() {
		for _, h := range hashes {
			o.inflight.Delete(domain.InFlightKey{SiteID: site.ID, TargetLang: site.TargetLang, Hash: h})
		}
	}
	accepted := o.tasks.Enqueue("translate-segments", func(ctx context.Context) {
		defer release()
		texts, err := o.translator.Translate(ctx, site, values)
		if err != nil {
			o.logger.Warn("background segment translation failed", "site", site.ID, "count", len(values), "error", err)
			return
		}
		records := make([]domain.TranslationRecord, len(hashes))
		for i, h := range hashes {
			records[i] = domain.TranslationRecord{Hash: h, Translated: texts[i]}
		}
		o.segments.Upsert(ctx, site.ID, site.TargetLang, records)
	})
	if !accepted {
		release()
	}
}

func (o *Orchestrator) enqueuePathJob(site *domain.SiteConfig, cands []paths.Candidate) {
	release := func() {
		for _, cand := range cands {
			o.inflight.Delete(domain.InFlightKey{SiteID: site.ID, TargetLang: site.TargetLang, Hash: util.Hash(cand.Normalised)})
		}
	}
	accepted := o.tasks.Enqueue("translate-pathnames", func(ctx context.Context) {
		defer release()
		values := make([]string, len(cands))
		for i, cand := range cands {
			values[i] = cand.Normalised
		}
		translated, err := o.translator.Translate(ctx, site, values)
		if err != nil {
			o.logger.Warn("background pathname translation failed", "site", site.ID, "count", len(values), "error", err)
			return
		}
		records := make([]domain.PathnameRecord, len(cands))
		for i, cand := range cands {
			records[i] = domain.PathnameRecord{Original: cand.Normalised, Translated: translated[i]}
		}
		o.pathnames.Upsert(ctx, site.ID, site.TargetLang, records)
	})
	if !accepted {
		release()
	}
}

// scheduleWrites queues the post-response bookkeeping: new translations,
// view counters and last-used refreshes. Nothing here blocks the response.
func (o *Orchestrator) scheduleWrites(site *domain.SiteConfig, resolved paths.Resolved, newRecords []domain.TranslationRecord, newPathRecords []domain.PathnameRecord, usedHashes []string) {
	siteID, lang := site.ID, site.TargetLang
	pagePath := resolved.Normalised
	o.tasks.Enqueue("post-response-writes", func(ctx context.Context) {
		if len(newRecords) > 0 {
			o.segments.Upsert(ctx, siteID, lang, newRecords)
		}
		if len(newPathRecords) > 0 {
			o.pathnames.Upsert(ctx, siteID, lang, newPathRecords)
		}
		if len(usedHashes) > 0 {
			o.segments.Touch(ctx, siteID, lang, usedHashes)
		}
		o.pathnames.IncrementViews(ctx, siteID, pagePath)
	})
}

func (o *Orchestrator) pathSkipped(site *domain.SiteConfig, normalisedPath string) bool {
	for _, pattern := range site.SkipPathPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if re.MatchString(normalisedPath) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func hashesInUse(hashes []string, cached map[string]string) []string {
	var used []string
	seen := map[string]struct{}{}
	for _, h := range hashes {
		if _, ok := cached[h]; !ok {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		used = append(used, h)
	}
	return used
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// collectLinkPaths gathers same-site href paths from the document for
// forward pathname translation.
func collectLinkPaths(doc *html.Node, site *domain.SiteConfig) []string {
	gq := goquery.NewDocumentFromNode(doc)
	var out []string
	seen := map[string]struct{}{}
	gq.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		path, ok := sameSitePath(href, site)
		if !ok {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	})
	return out
}

// rewriteLinks swaps href paths for their translated forms. Untranslated
// links pass through untouched.
func rewriteLinks(doc *html.Node, site *domain.SiteConfig, translated map[string]string) {
	if len(translated) == 0 {
		return
	}
	gq := goquery.NewDocumentFromNode(doc)
	gq.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		path, ok := sameSitePath(href, site)
		if !ok {
			return
		}
		newPath, ok := translated[path]
		if !ok || newPath == path {
			return
		}
		sel.SetAttr("href", strings.Replace(href, path, newPath, 1))
	})
}

// sameSitePath extracts the path portion of an href when it points at this
// site: relative links, or absolute links to the proxied or origin host.
func sameSitePath(href string, site *domain.SiteConfig) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		return trimHrefPath(href), true
	}
	if strings.Contains(href, "://") || strings.HasPrefix(href, "//") {
		trimmed := href
		if idx := strings.Index(trimmed, "://"); idx >= 0 {
			trimmed = trimmed[idx+3:]
		} else {
			trimmed = strings.TrimPrefix(trimmed, "//")
		}
		slash := strings.Index(trimmed, "/")
		if slash < 0 {
			return "", false
		}
		host := util.StripPort(trimmed[:slash])
		if !strings.EqualFold(host, site.Hostname) && !strings.EqualFold(host, util.StripPort(site.OriginHostname)) {
			return "", false
		}
		return trimHrefPath(trimmed[slash:]), true
	}
	return "", false
}

func trimHrefPath(p string) string {
	if idx := strings.IndexAny(p, "?#"); idx >= 0 {
		p = p[:idx]
	}
	return p
}

// addLanguageMetadata sets html@lang to the target language and adds
// alternate hreflang links. A missing head just skips the links.
func addLanguageMetadata(doc *html.Node, site *domain.SiteConfig) {
	gq := goquery.NewDocumentFromNode(doc)
	gq.Find("html").SetAttr("lang", site.TargetLang)

	head := gq.Find("head")
	if head.Length() == 0 {
		return
	}
	head.AppendHtml(`<link rel="alternate" hreflang="` + html.EscapeString(site.SourceLang) + `" href="` + html.EscapeString(site.Scheme()+"://"+site.OriginHostname+"/") + `"/>`)
	head.AppendHtml(`<link rel="alternate" hreflang="` + html.EscapeString(site.TargetLang) + `" href="` + html.EscapeString(site.Scheme()+"://"+site.Hostname+"/") + `"/>`)
}
