// Package api serves the fire queries over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/firewatch/internal/fires"
	"github.com/sells-group/firewatch/internal/model"
	"github.com/sells-group/firewatch/internal/refresh"
)

// Querier is the query surface the handlers need. *fires.Service satisfies it.
type Querier interface {
	Refresh(ctx context.Context) (refresh.Result, error)
	Summarize(ctx context.Context, limit int) (string, error)
	Snapshot(ctx context.Context, limit int) ([]model.FireRecord, error)
	SummarizeRegion(ctx context.Context, name string) (string, error)
	RegionStats(ctx context.Context) ([]model.RegionStats, error)
	RegionNames() ([]string, error)
	RegionMessage(err error) (string, bool)
}

var _ Querier = (*fires.Service)(nil)

type handler struct {
	q            Querier
	defaultLimit int
}

// NewRouter builds the HTTP routes. defaultLimit applies to /summary when no
// limit parameter is given.
func NewRouter(q Querier, defaultLimit int) http.Handler {
	h := &handler{q: q, defaultLimit: defaultLimit}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Post("/refresh", h.refresh)
	r.Get("/summary", h.summary)
	r.Get("/fires", h.fires)
	r.Get("/regions", h.regions)
	r.Get("/regions/{name}", h.region)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.q.Refresh(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, h.defaultLimit)
	if !ok {
		return
	}
	text, err := h.q.Summarize(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: text})
}

func (h *handler) fires(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 0)
	if !ok {
		return
	}
	records, err := h.q.Snapshot(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if records == nil {
		records = []model.FireRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) region(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	text, err := h.q.SummarizeRegion(r.Context(), name)
	if err != nil {
		msg, ok := h.q.RegionMessage(err)
		if !ok {
			h.fail(w, r, err)
			return
		}
		zap.L().Warn("api: region query degraded", zap.String("region", name), zap.Error(err))
		text = msg
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: text})
}

func (h *handler) regions(w http.ResponseWriter, r *http.Request) {
	if names, _ := strconv.ParseBool(r.URL.Query().Get("names")); names {
		h.regionNames(w, r)
		return
	}
	stats, err := h.q.RegionStats(r.Context())
	if err != nil {
		if msg, ok := h.q.RegionMessage(err); ok {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msg})
			return
		}
		h.fail(w, r, err)
		return
	}
	if stats == nil {
		stats = []model.RegionStats{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) regionNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.q.RegionNames()
	if err != nil {
		if msg, ok := h.q.RegionMessage(err); ok {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msg})
			return
		}
		h.fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if fires.IsSourceNotFound(err) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "fire source file not found"})
		return
	}
	zap.L().Error("api: request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// parseLimit reads the optional "limit" query parameter. It writes a 400 and
// returns false when the value is not an integer.
func parseLimit(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
