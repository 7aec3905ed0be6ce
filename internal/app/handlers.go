package app

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pantolingo/pantolingo/internal/adapter/codec"
	"github.com/pantolingo/pantolingo/internal/app/services"
	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/core/ports"
	"github.com/pantolingo/pantolingo/internal/logger"
	"github.com/pantolingo/pantolingo/internal/version"
)

func (a *Application) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *Application) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    version.Name,
		"version": version.Version,
		"commit":  version.Commit,
		"built":   version.Date,
	})
}

func (a *Application) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Uptime string              `json:"uptime"`
		Sites  int64               `json:"sites"`
		Stats  ports.StatsSnapshot `json:"stats"`
	}{
		Uptime: time.Since(a.startTime).Round(time.Second).String(),
		Sites:  a.siteCount.Load(),
		Stats:  a.stats.Snapshot(),
	})
}

func (a *Application) handleDeferredScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write([]byte(services.DeferredScript))
}

// pollRequest mirrors the client payload: the pending segments as they
// were handed out at page render time.
type pollRequest struct {
	Segments []domain.PendingSegment `json:"segments"`
}

// handlePoll answers the deferred client. For each pending segment the
// original content is re-normalised to recover the replacement tables,
// the translation is looked up by the segment's hash, and the restored
// string is returned. Hashes whose translation has not landed are left
// out entirely.
func (a *Application) handlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	site, err := a.siteResolver.Resolve(r.Context(), r.Host)
	if err != nil {
		http.Error(w, "unknown site", http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.Server.PollMaxBodyBytes)
	var req pollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if len(req.Segments) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{})
		return
	}

	hashes := make([]string, 0, len(req.Segments))
	for _, seg := range req.Segments {
		if seg.Hash != "" {
			hashes = append(hashes, seg.Hash)
		}
	}
	ready := a.translations.LookupHashes(r.Context(), site.ID, site.TargetLang, hashes)

	out := restorePending(req.Segments, ready, site, a.logger)
	if len(out) > 0 {
		touched := make([]string, 0, len(out))
		for h := range out {
			touched = append(touched, h)
		}
		a.translations.Touch(r.Context(), site.ID, site.TargetLang, touched)
	}
	writeJSON(w, http.StatusOK, out)
}

// restorePending denormalises each ready translation using replacement
// tables recovered from the segment's original content.
func restorePending(segments []domain.PendingSegment, ready map[string]string, site *domain.SiteConfig, log *logger.StyledLogger) map[string]string {
	out := make(map[string]string, len(ready))
	for _, seg := range segments {
		translated, ok := ready[seg.Hash]
		if !ok {
			continue
		}

		switch seg.Kind {
		case domain.SegmentHTML:
			htmlRes := codec.HTMLToPlaceholders(seg.Content, false)
			patRes := codec.ApplyPatterns(strings.TrimSpace(htmlRes.Text), site.SkipWords)
			restored := codec.RestorePatterns(translated, patRes.Replacements, patRes.IsUpperCase)
			out[seg.Hash] = codec.PlaceholdersToHTML(restored, htmlRes.Replacements)

		default:
			patRes := codec.ApplyPatterns(strings.TrimSpace(seg.Content), site.SkipWords)
			out[seg.Hash] = codec.RestorePatterns(translated, patRes.Replacements, patRes.IsUpperCase)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
