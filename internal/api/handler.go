package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gyaneshwarpardhi/noticed/internal/archive"
	"github.com/gyaneshwarpardhi/noticed/internal/config"
	"github.com/gyaneshwarpardhi/noticed/internal/metrics"
	"github.com/gyaneshwarpardhi/noticed/internal/notice"
	"github.com/gyaneshwarpardhi/noticed/internal/projection"
	"github.com/gyaneshwarpardhi/noticed/internal/relay"
)

const maxBatchSize = 100

// Relay is the part of *relay.Relay the API drives.
type Relay interface {
	Project(ctx context.Context, n *notice.Notice) (*relay.Result, error)
	Dispatch(n *notice.Notice) (string, bool)
	Options() projection.Options
	SetOptions(projection.Options)
	Sinks() []string
	QueueUtilization() float64
}

// Archive lists archived notices.
type Archive interface {
	List(ctx context.Context, q archive.Query) ([]archive.Record, error)
}

// Reloader re-reads the config file.
type Reloader interface {
	Reload() (*config.Config, error)
}

// Deps holds all HTTP handler dependencies. Archive and Reloader are optional.
type Deps struct {
	Relay        Relay
	Archive      Archive
	Reloader     Reloader
	Log          zerolog.Logger
	MaxBodyBytes int64
	CORSOrigins  []string
}

// Handler serves the HTTP API.
type Handler struct {
	deps Deps
	mux  chi.Router
}

// New creates an HTTP handler and registers all routes.
func New(deps Deps) http.Handler {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}
	h := &Handler{deps: deps, mux: chi.NewRouter()}

	h.mux.Use(middleware.RequestID)
	h.mux.Use(middleware.RealIP)
	h.mux.Use(middleware.Recoverer)
	if len(deps.CORSOrigins) > 0 {
		h.mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}
	h.mux.Use(accessLog(deps.Log.With().Str("component", "api").Logger()))

	h.mux.Route("/v1", func(r chi.Router) {
		r.Post("/notices", h.projectNotice)
		r.Post("/notices/batch", h.dispatchBatch)
		r.Get("/notices", h.listNotices)
		r.Get("/projection", h.projectionOptions)
		r.Post("/config/reload", h.reloadConfig)
	})
	h.mux.Get("/healthz", h.healthz)
	h.mux.Get("/readyz", h.readyz)
	h.mux.Handle("/metrics", promhttp.Handler())

	return h.mux
}

// POST /v1/notices — synchronous projection of a single notice.
func (h *Handler) projectNotice(w http.ResponseWriter, r *http.Request) {
	var n notice.Notice
	if err := h.decode(w, r, &n); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if err := n.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.deps.Relay.Project(r.Context(), &n)
	switch {
	case errors.Is(err, relay.ErrQueueFull), errors.Is(err, relay.ErrTimeout):
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if res.Error != "" {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/notices/batch — async batch dispatch (up to 100 notices).
func (h *Handler) dispatchBatch(w http.ResponseWriter, r *http.Request) {
	var batch []*notice.Notice
	if err := h.decode(w, r, &batch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(batch) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one notice")
		return
	}
	if len(batch) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(batch), maxBatchSize))
		return
	}
	for i, n := range batch {
		if n == nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("notice %d: must be an object", i))
			return
		}
		if err := n.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("notice %d: %s", i, err))
			return
		}
	}

	ids := make([]string, 0, len(batch))
	for _, n := range batch {
		if id, ok := h.deps.Relay.Dispatch(n); ok {
			ids = append(ids, id)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   uuid.NewString(),
		"total":    len(batch),
		"queued":   len(ids),
		"rejected": len(batch) - len(ids),
		"ids":      ids,
	})
}

// GET /v1/notices?type=&limit= — archived notices, newest first.
func (h *Handler) listNotices(w http.ResponseWriter, r *http.Request) {
	if h.deps.Archive == nil {
		writeError(w, http.StatusNotImplemented, "archive is disabled")
		return
	}
	q := archive.Query{Type: r.URL.Query().Get("type")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		q.Limit = limit
	}
	records, err := h.deps.Archive.List(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"notices": records,
	})
}

// GET /v1/projection — current service-wide projection options.
func (h *Handler) projectionOptions(w http.ResponseWriter, r *http.Request) {
	opts := h.deps.Relay.Options()
	if opts.Skip == nil {
		opts.Skip = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reduce": true,
		"skip":   opts.Skip,
		"types":  projection.Types.Names(),
		"sinks":  h.deps.Relay.Sinks(),
	})
}

// POST /v1/config/reload — re-read the config file and apply projection options.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if h.deps.Reloader == nil {
		writeError(w, http.StatusNotImplemented, "config reload is not available")
		return
	}
	cfg, err := h.deps.Reloader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.deps.Relay.SetOptions(cfg.Projection)
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded": true,
		"version":  cfg.Version,
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the relay queue is more than 80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.deps.Relay.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ready",
		"queue_utilization": util,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, h.deps.MaxBodyBytes)
	return json.NewDecoder(body).Decode(v)
}
