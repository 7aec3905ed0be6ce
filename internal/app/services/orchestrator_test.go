package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantolingo/pantolingo/internal/adapter/cache"
	"github.com/pantolingo/pantolingo/internal/adapter/extract"
	"github.com/pantolingo/pantolingo/internal/adapter/fetcher"
	"github.com/pantolingo/pantolingo/internal/adapter/inflight"
	"github.com/pantolingo/pantolingo/internal/adapter/paths"
	"github.com/pantolingo/pantolingo/internal/adapter/stats"
	"github.com/pantolingo/pantolingo/internal/adapter/store"
	"github.com/pantolingo/pantolingo/internal/config"
	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/logger"
	"github.com/pantolingo/pantolingo/internal/util"
)

type staticSiteResolver struct {
	site *domain.SiteConfig
}

func (s *staticSiteResolver) Resolve(_ context.Context, hostname string) (*domain.SiteConfig, error) {
	if s.site == nil || util.StripPort(hostname) != s.site.Hostname {
		return nil, domain.ErrSiteNotConfigured
	}
	return s.site, nil
}

type stubTranslator struct {
	calls atomic.Int64
	fail  bool
}

func (s *stubTranslator) Translate(_ context.Context, _ *domain.SiteConfig, texts []string) ([]string, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, domain.ErrTranslationFailed
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = "ES:" + text
	}
	return out, nil
}

type fixture struct {
	orchestrator *Orchestrator
	store        *store.MemoryStore
	translator   *stubTranslator
	tasks        *TaskQueue
	site         *domain.SiteConfig
}

func newFixture(t *testing.T, originURL string, deferred bool) *fixture {
	t.Helper()
	log := logger.NewTestLogger()

	u, err := url.Parse(originURL)
	require.NoError(t, err)
	site := &domain.SiteConfig{
		ID:             "site-1",
		Hostname:       "es.example.com",
		OriginHostname: u.Host,
		OriginScheme:   u.Scheme,
		SourceLang:     "en",
		TargetLang:     "es",
		TranslatePaths: true,
		Deferred:       deferred,
	}

	mem := store.NewMemoryStore()
	translations := cache.NewTranslationCache(mem, log)
	pathnames := cache.NewPathnameCache(mem, log)
	collector := stats.NewCollector()
	tasks := NewTaskQueue(2, 32, collector, log)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		tasks.Shutdown(ctx)
	})
	registry := inflight.NewRegistry(time.Minute)
	t.Cleanup(registry.Close)

	origin, err := fetcher.New(5*time.Second, log)
	require.NoError(t, err)

	tr := &stubTranslator{}
	orch := NewOrchestrator(
		&staticSiteResolver{site: site},
		paths.NewResolver(pathnames),
		origin,
		extract.NewExtractor(log),
		extract.NewApplicator(log),
		translations,
		pathnames,
		tr,
		registry,
		tasks,
		collector,
		config.DeferredConfig{Enabled: deferred, PollInterval: time.Second, MaxPolls: 10},
		log,
	)
	return &fixture{orchestrator: orch, store: mem, translator: tr, tasks: tasks, site: site}
}

func proxyRequest(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "http://es.example.com"+path, nil)
}

func TestSynchronousTranslation(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Shop</title></head><body><p>Hello</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)
	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "<title>ES:Shop</title>")
	assert.Contains(t, body, "<p>ES:Hello</p>")
	assert.Contains(t, body, `lang="es"`)
	assert.Contains(t, body, `hreflang="en"`)
	assert.Empty(t, rec.Header().Get("X-Error"))
}

func TestSecondRequestServedFromCache(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Hello</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))
	require.Contains(t, rec.Body.String(), "ES:Hello")

	// Wait for the post-response upsert to land.
	require.Eventually(t, func() bool {
		got, err := f.store.Lookup(context.Background(), "site-1", "es", []string{util.Hash("Hello")})
		return err == nil && len(got) == 1
	}, time.Second, 10*time.Millisecond)

	before := f.translator.calls.Load()
	rec = httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))
	assert.Contains(t, rec.Body.String(), "ES:Hello")
	assert.Equal(t, before, f.translator.calls.Load())
}

func TestTranslationFailureServesOriginal(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Hello</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)
	f.translator.fail = true

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>Hello</p>")
	assert.Equal(t, "Translation failed", rec.Header().Get("X-Error"))
}

func TestUnknownHostServesExplanationPage(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:1", false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://unknown.example.com/", nil)
	f.orchestrator.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestNonHTMLPassthrough(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)
	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/api/data"))

	assert.Equal(t, `{"ok":true}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRedirectRewritten(t *testing.T) {
	var originHost string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://"+originHost+"/new", http.StatusFound)
	}))
	defer origin.Close()
	originHost = strings.TrimPrefix(origin.URL, "http://")

	f := newFixture(t, origin.URL, false)
	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/old"))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://es.example.com/new", rec.Header().Get("Location"))
}

func TestDeferredModeMarksPendingAndFillsCache(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>T</title></head><body><p>Hello</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, true)
	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, extract.PendingAttr)
	assert.Contains(t, body, "window.__PANTOLINGO_DEFERRED__")
	assert.Contains(t, body, ScriptEndpoint)
	assert.Contains(t, body, "Hello")
	assert.NotContains(t, body, "ES:Hello")

	require.Eventually(t, func() bool {
		got, err := f.store.Lookup(context.Background(), "site-1", "es", []string{util.Hash("Hello")})
		return err == nil && got[util.Hash("Hello")] == "ES:Hello"
	}, time.Second, 10*time.Millisecond)
}

func TestDeferredDuplicateMissDispatchesOnce(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Hello</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, true)

	// Two sequential requests before the background write can land would
	// normally double-dispatch; the in-flight set prevents that. Make the
	// first dispatch slow by stacking requests quickly.
	rec1 := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec1, proxyRequest("/"))
	rec2 := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec2, proxyRequest("/"))

	require.Eventually(t, func() bool {
		got, err := f.store.Lookup(context.Background(), "site-1", "es", []string{util.Hash("Hello")})
		return err == nil && len(got) == 1
	}, time.Second, 10*time.Millisecond)

	// One segment job plus at most one pathname job.
	assert.LessOrEqual(t, f.translator.calls.Load(), int64(2))
}

func TestLinkRewritingUsesStoredPathnames(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a href="/about-us">About</a></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)
	require.NoError(t, f.store.UpsertPathnames(context.Background(), "site-1", "es", []domain.PathnameRecord{
		{Original: "/about-us", Translated: "/sobre-nosotros"},
	}))

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))

	assert.Contains(t, rec.Body.String(), `href="/sobre-nosotros"`)
}

func TestTranslatedInboundPathFetchesOriginal(t *testing.T) {
	var fetchedPath atomic.Value
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchedPath.Store(r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>About page</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)
	require.NoError(t, f.store.UpsertPathnames(context.Background(), "site-1", "es", []domain.PathnameRecord{
		{Original: "/about-us", Translated: "/sobre-nosotros"},
	}))

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/sobre-nosotros"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/about-us", fetchedPath.Load())
}

func TestSkipPathPatternPassthrough(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Admin area</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)
	f.site.SkipPathPatterns = []string{`^/admin`}

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/admin/settings"))

	assert.Contains(t, rec.Body.String(), "<p>Admin area</p>")
	assert.Equal(t, int64(0), f.translator.calls.Load())
}

func TestCacheDisabledSetsNoStore(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Hello</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)
	f.site.CacheDisabledUntil = time.Now().Add(time.Hour)

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "ES:Hello")
}

func TestCacheDisabledStillConsultsTranslationCache(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Hello</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)
	f.site.CacheDisabledUntil = time.Now().Add(time.Hour)
	require.NoError(t, f.store.Upsert(context.Background(), "site-1", "es", []domain.TranslationRecord{
		{Hash: util.Hash("Hello"), Translated: "Hola"},
	}))

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))

	// The flag only controls the downstream Cache-Control header; stored
	// translations are still served and the model is left alone.
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "Hola")
	assert.NotContains(t, rec.Body.String(), "ES:Hello")
	assert.Equal(t, int64(0), f.translator.calls.Load())
}

func TestCacheDisabledStillWritesTranslationCache(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Hello</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)
	f.site.CacheDisabledUntil = time.Now().Add(time.Hour)

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))
	require.Contains(t, rec.Body.String(), "ES:Hello")

	require.Eventually(t, func() bool {
		got, err := f.store.Lookup(context.Background(), "site-1", "es", []string{util.Hash("Hello")})
		return err == nil && got[util.Hash("Hello")] == "ES:Hello"
	}, time.Second, 10*time.Millisecond)
}

func TestOriginServerErrorIs502(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html><body><p>Stack trace here</p></body></html>`))
	}))
	defer origin.Close()

	f := newFixture(t, origin.URL, false)

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream unavailable")
	assert.NotContains(t, rec.Body.String(), "Stack trace")
	assert.Equal(t, int64(0), f.translator.calls.Load())
}

func TestUpstreamFailureIs502(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:1", false)
	f.site.Hostname = "es.example.com"

	rec := httptest.NewRecorder()
	f.orchestrator.ServeHTTP(rec, proxyRequest("/"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
