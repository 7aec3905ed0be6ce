package app

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"

	"github.com/pantolingo/pantolingo/internal/app/services"
	"github.com/pantolingo/pantolingo/internal/util"
)

const requestIDHeader = "X-Request-ID"

func (a *Application) buildServer() *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/version", a.handleVersion)
	mux.HandleFunc(services.ControlPrefix+"/status", a.handleStatus)
	mux.HandleFunc(services.ScriptEndpoint, a.handleDeferredScript)
	mux.Handle(services.PollEndpoint, a.pollLimiter(http.HandlerFunc(a.handlePoll)))
	mux.Handle("/", a.orchestrator)

	handler := requestIDMiddleware(securityHeadersMiddleware(mux))

	return &http.Server{
		Addr:         a.config.Server.GetAddress(),
		Handler:      handler,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}
}

// requestIDMiddleware tags every request with an ID, honouring one the
// client already carries.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware applies response defaults. Origin-supplied
// values win; these only fill gaps.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if h.Get("X-Content-Type-Options") == "" {
			h.Set("X-Content-Type-Options", "nosniff")
		}
		if h.Get("Referrer-Policy") == "" {
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		}
		next.ServeHTTP(w, r)
	})
}

// pollLimiter rate-limits the poll endpoint per client IP so a stuck
// client loop cannot hammer the store.
func (a *Application) pollLimiter(next http.Handler) http.Handler {
	perSecond := a.config.Server.PollRatePerSecond
	burst := a.config.Server.PollRateBurst
	if perSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = int(perSecond) + 1
	}

	limiters := xsync.NewMap[string, *rate.Limiter]()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		limiter, _ := limiters.LoadOrCompute(ip, func() (*rate.Limiter, bool) {
			return rate.NewLimiter(rate.Limit(perSecond), burst), false
		})
		if !limiter.Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return util.StripPort(strings.TrimSpace(first))
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (a *Application) startServer(ctx context.Context) error {
	a.server = a.buildServer()

	errCh := make(chan error, 1)
	go func() {
		a.logger.InfoWithHost("listening", a.config.Server.GetAddress())
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Application) stopServer(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, a.shutdownTimeout())
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

func (a *Application) shutdownTimeout() time.Duration {
	if a.config.Server.ShutdownTimeout > 0 {
		return a.config.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
