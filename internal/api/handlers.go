package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"genweb/internal/cache"
	"genweb/internal/health"
	"genweb/internal/logs"
	"genweb/internal/media"
	"genweb/internal/metrics"
	"genweb/internal/site"
)

// AdminPrefix is reserved for operator endpoints and never generated.
const AdminPrefix = "/_admin/"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	site     *site.Service
	media    *media.Server
	cache    *cache.Cache
	metrics  *metrics.Registry
	logger   *logs.Logger
	analyzer *health.Analyzer
}

// NewHandler creates a new API handler.
func NewHandler(
	svc *site.Service,
	mediaServer *media.Server,
	c *cache.Cache,
	metrics *metrics.Registry,
	logger *logs.Logger,
) *Handler {
	return &Handler{
		site:     svc,
		media:    mediaServer,
		cache:    c,
		metrics:  metrics,
		logger:   logger,
		analyzer: health.NewAnalyzer(metrics, logger),
	}
}

/* ---------------- GET /{path...} ---------------- */

func (h *Handler) ServeContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Path
	key := clientKey(r)

	if media.IsMedia(path) {
		if !h.site.Admit(key) {
			h.logger.Warnf("rate limit exceeded for %s", key)
			writeText(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		h.media.ServeFile(w, r, path)
		return
	}

	out := h.site.Handle(r.Context(), path, key)
	switch out.Status {
	case site.StatusRateLimited:
		writeText(w, http.StatusTooManyRequests, "Too Many Requests")
	case site.StatusOK:
		w.Header().Set("Content-Type", out.MIMEType)
		if out.CacheHit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(out.Body))
		}
	default:
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

/* ---------------- GET /_admin/cache ---------------- */

type cacheEntryView struct {
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	AgeSeconds  int64     `json:"age_seconds"`
}

func (h *Handler) ListCache(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	entries := h.cache.List()

	resp := make([]cacheEntryView, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, cacheEntryView{
			Path:        e.Path,
			ContentType: e.ContentType.String(),
			Size:        len(e.Content),
			CreatedAt:   e.CreatedAt,
			AgeSeconds:  int64(now.Sub(e.CreatedAt).Seconds()),
		})
	}

	writeJSON(w, resp)
}

/* ---------------- DELETE /_admin/cache/{path} ---------------- */

func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	// /_admin/cache/ names the root page
	path := strings.TrimPrefix(r.URL.Path, AdminPrefix+"cache")
	if path == "" {
		http.Error(w, "missing path", http.StatusBadRequest)
		return
	}

	if !h.cache.Delete(path) {
		http.Error(w, "path not cached", http.StatusNotFound)
		return
	}
	h.logger.Infof("invalidated cached content for %s", path)
	w.WriteHeader(http.StatusNoContent)
}

/* ---------------- GET /_admin/metrics ---------------- */

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.metrics.Snapshot())
}

/* ---------------- GET /_admin/health ---------------- */

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.analyzer.Analyze())
}

// clientKey is the remote host without the port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "0.0.0.0"
	}
	return host
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
