package scoreboardhandlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	scoreboardpublishers "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/publishers"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// SnapshotReader serves the latest published snapshot.
type SnapshotReader interface {
	Latest() (scoreboardpublishers.Documents, bool)
	Chart() ([]byte, bool)
	Snapshot() (scoreboarddomain.Snapshot, bool)
}

// UnknownStatusReader lists status tokens no vocabulary recognised.
type UnknownStatusReader interface {
	UnknownStatuses() []scoreboarddomain.UnknownStatusReport
}

// Handlers serves the read API of one contest.
type Handlers struct {
	contestID string
	snapshots SnapshotReader
	unknown   UnknownStatusReader
	logger    *slog.Logger
}

func NewHandlers(contestID string, snapshots SnapshotReader, unknown UnknownStatusReader, logger *slog.Logger) *Handlers {
	return &Handlers{
		contestID: contestID,
		snapshots: snapshots,
		unknown:   unknown,
		logger:    logger,
	}
}

// RouterConfig holds what NewRouter mounts besides the handlers.
type RouterConfig struct {
	Issuer            *TokenIssuer
	Prometheus        *prometheus.Registry
	RequestsPerSecond float64
	Burst             int
}

// NewRouter mounts the public, metrics and admin routes.
func NewRouter(h *Handlers, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RequestsPerSecond) + 1
		}
		r.Use(RateLimitMiddleware(NewIPRateLimiter(rate.Limit(cfg.RequestsPerSecond), burst)))
	}

	r.Get("/healthz", h.HandleHealth)
	r.Get("/ranking.json", h.HandleRanking)
	r.Get("/scroll.json", h.HandleScroll)
	r.Get("/stats.png", h.HandleChart)

	if cfg.Prometheus != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Prometheus, promhttp.HandlerOpts{}))
	}

	if cfg.Issuer != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(cfg.Issuer, RoleOperator))
			r.Get("/unknown-statuses", h.HandleUnknownStatuses)
		})
	}
	return r
}

type healthResponse struct {
	Status        string `json:"status"`
	ContestID     string `json:"contest_id"`
	Published     bool   `json:"published"`
	CycleID       string `json:"cycle_id,omitempty"`
	HighWaterMark int64  `json:"high_water_mark"`
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", ContestID: h.contestID}
	if snap, ok := h.snapshots.Snapshot(); ok {
		resp.Published = true
		resp.CycleID = snap.CycleID
		resp.HighWaterMark = snap.HighWaterMark
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) HandleRanking(w http.ResponseWriter, r *http.Request) {
	docs, ok := h.snapshots.Latest()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusNotFound)
		return
	}
	writeBytes(w, "application/json", docs.Ranking)
}

func (h *Handlers) HandleScroll(w http.ResponseWriter, r *http.Request) {
	docs, ok := h.snapshots.Latest()
	if !ok {
		http.Error(w, "no snapshot published yet", http.StatusNotFound)
		return
	}
	writeBytes(w, "application/json", docs.Scroll)
}

func (h *Handlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	png, ok := h.snapshots.Chart()
	if !ok {
		http.Error(w, "no chart rendered yet", http.StatusNotFound)
		return
	}
	writeBytes(w, "image/png", png)
}

func (h *Handlers) HandleUnknownStatuses(w http.ResponseWriter, r *http.Request) {
	reports := h.unknown.UnknownStatuses()
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		h.logger.DebugContext(r.Context(), "Unknown statuses requested",
			attr.String("subject", claims.Subject),
			attr.Int("count", len(reports)),
		)
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"contest_id": h.contestID,
		"statuses":   reports,
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to write response", attr.Error(err))
	}
}

func writeBytes(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
