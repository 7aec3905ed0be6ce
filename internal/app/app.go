package app

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pantolingo/pantolingo/internal/adapter/cache"
	"github.com/pantolingo/pantolingo/internal/adapter/extract"
	"github.com/pantolingo/pantolingo/internal/adapter/fetcher"
	"github.com/pantolingo/pantolingo/internal/adapter/inflight"
	"github.com/pantolingo/pantolingo/internal/adapter/paths"
	"github.com/pantolingo/pantolingo/internal/adapter/sites"
	"github.com/pantolingo/pantolingo/internal/adapter/stats"
	"github.com/pantolingo/pantolingo/internal/adapter/store"
	"github.com/pantolingo/pantolingo/internal/adapter/translator"
	"github.com/pantolingo/pantolingo/internal/adapter/translator/openai"
	"github.com/pantolingo/pantolingo/internal/app/services"
	"github.com/pantolingo/pantolingo/internal/config"
	"github.com/pantolingo/pantolingo/internal/core/ports"
	"github.com/pantolingo/pantolingo/internal/logger"
)

// Application owns the wired component graph and the HTTP server.
type Application struct {
	startTime time.Time
	config    *config.Config
	logger    *logger.StyledLogger

	siteStore    *sites.StaticStore
	siteResolver ports.SiteResolver
	translations *cache.TranslationCache
	pathnames    *cache.PathnameCache
	registry     *inflight.Registry
	tasks        *services.TaskQueue
	stats        ports.StatsCollector
	orchestrator *services.Orchestrator
	redis        *store.RedisStore

	siteCount atomic.Int64
	server    *http.Server
}

func New(startTime time.Time, cfg *config.Config, log *logger.StyledLogger) (*Application, error) {
	a := &Application{
		startTime: startTime,
		config:    cfg,
		logger:    log,
		stats:     stats.NewCollector(),
	}
	a.siteCount.Store(int64(len(cfg.Sites)))

	var translationStore ports.TranslationStore
	var pathnameStore ports.PathnameStore
	if cfg.Store.RedisAddr != "" {
		redisStore := store.NewRedisStore(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB, cfg.Store.KeyPrefix)
		a.redis = redisStore
		translationStore = redisStore
		pathnameStore = redisStore
		log.Info("using redis store", "addr", cfg.Store.RedisAddr)
	} else {
		memStore := store.NewMemoryStore()
		translationStore = memStore
		pathnameStore = memStore
		log.Warn("no redis configured, translations are process-local")
	}

	a.siteStore = sites.NewStaticStore(cfg.Sites)
	a.siteResolver = sites.NewResolver(a.siteStore, cfg.Store.SiteCacheTTL, log)

	a.translations = cache.NewTranslationCache(translationStore, log)
	a.pathnames = cache.NewPathnameCache(pathnameStore, log)
	pathResolver := paths.NewResolver(a.pathnames)

	origin, err := fetcher.New(cfg.Proxy.ConnectionTimeout, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create origin fetcher: %w", err)
	}

	provider := openai.NewProvider(cfg.Translator, log)
	gateway := translator.NewGateway(provider, cfg.Translator, a.stats, log)

	a.registry = inflight.NewRegistry(cfg.Deferred.InflightTTL)
	a.tasks = services.NewTaskQueue(cfg.Deferred.Workers, cfg.Deferred.QueueSize, a.stats, log)

	a.orchestrator = services.NewOrchestrator(
		a.siteResolver,
		pathResolver,
		origin,
		extract.NewExtractor(log),
		extract.NewApplicator(log),
		a.translations,
		a.pathnames,
		gateway,
		a.registry,
		a.tasks,
		a.stats,
		cfg.Deferred,
		log,
	)

	return a, nil
}

func (a *Application) Start(ctx context.Context) error {
	if a.redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx); err != nil {
			a.logger.Warn("redis unreachable at startup, continuing fail-open", "error", err)
		}
	}
	return a.startServer(ctx)
}

func (a *Application) Stop(ctx context.Context) error {
	err := a.stopServer(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), a.drainTimeout())
	defer cancel()
	a.tasks.Shutdown(drainCtx)

	a.registry.Close()
	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil {
			a.logger.Debug("redis close failed", "error", cerr)
		}
	}
	return err
}

// ReloadSites swaps the configured site set after a config hot reload.
func (a *Application) ReloadSites(entries []config.SiteEntry) {
	a.siteStore.Replace(entries)
	if invalidator, ok := a.siteResolver.(*sites.Resolver); ok {
		invalidator.Invalidate()
	}
	a.siteCount.Store(int64(len(entries)))
	a.logger.InfoWithCount("reloaded site configuration", len(entries))
}

func (a *Application) drainTimeout() time.Duration {
	if a.config.Deferred.DrainTimeout > 0 {
		return a.config.Deferred.DrainTimeout
	}
	return 5 * time.Second
}
