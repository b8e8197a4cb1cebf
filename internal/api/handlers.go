package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/smartphone-scraper/internal/jobs"
	"github.com/maltedev/smartphone-scraper/internal/queue"
	"github.com/maltedev/smartphone-scraper/internal/scraper"
)

type Handlers struct {
	jobs             *jobs.Manager
	defaultBaseURL   string
	defaultDedupMode string
	logger           *slog.Logger
}

func NewHandlers(jobs *jobs.Manager, defaultBaseURL, defaultDedupMode string, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:             jobs,
		defaultBaseURL:   defaultBaseURL,
		defaultDedupMode: defaultDedupMode,
		logger:           logger.With("component", "api"),
	}
}

// Routes mounts the run endpoints, relative to the API prefix.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", h.CreateRun)
		r.Get("/", h.ListRuns)
		r.Get("/{runID}", h.GetRun)
		r.Get("/{runID}/products", h.GetRunProducts)
	})
	r.Get("/stats", h.GetStats)

	return r
}

// CreateRunRequest overrides the configured defaults for one run. An empty
// body is allowed.
type CreateRunRequest struct {
	BaseURL   string `json:"base_url"`
	DedupMode string `json:"dedup_mode"`
}

type CreateRunResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateRun queues a crawl run
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.BaseURL == "" {
		req.BaseURL = h.defaultBaseURL
	}
	if req.DedupMode == "" {
		req.DedupMode = h.defaultDedupMode
	}

	if u, err := url.Parse(req.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		h.respondError(w, http.StatusBadRequest, "base_url must be an absolute URL")
		return
	}

	mode, err := scraper.ParseDedupMode(req.DedupMode)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.jobs.CreateRun(req.BaseURL, string(mode))
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			h.respondError(w, http.StatusServiceUnavailable, "too many queued runs")
			return
		}
		h.logger.Error("failed to create run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	h.respondJSON(w, http.StatusAccepted, CreateRunResponse{
		RunID:   run.ID,
		Status:  run.Status,
		Message: "Run queued",
	})
}

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.jobs.GetRun(chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, run)
}

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.ListRuns())
}

// GetRunProducts returns the products of a run in the output artifact format
func (h *Handlers) GetRunProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.jobs.GetRunProducts(chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.GetStats())
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
