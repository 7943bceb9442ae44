package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"job-board-go/internal/fetch"
	"job-board-go/internal/jobs"
	"job-board-go/internal/logging"
	"job-board-go/internal/models"
	"job-board-go/internal/storage"
)

// Options tune the views. Zero values fall back to the defaults below.
type Options struct {
	RecentLimit   int
	ExcerptLength int
	EnableMetrics bool
}

const (
	defaultRecentLimit   = 3
	defaultExcerptLength = 90
)

func NewRouter(store *jobs.Store, backend storage.Store, opts Options, logger logging.Logger) http.Handler {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = defaultRecentLimit
	}
	if opts.ExcerptLength <= 0 {
		opts.ExcerptLength = defaultExcerptLength
	}

	h := &Handlers{
		store:  store,
		loader: jobs.NewDetailLoader(backend, logger),
		recent: fetch.Jobs(backend),
		opts:   opts,
		logger: logger,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	if opts.EnableMetrics {
		r.Use(MetricsMiddleware)
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/health", h.Health)

	r.Get("/", h.Home)
	r.Get("/jobs", h.ListJobs)
	r.Get("/job/{id}", h.GetJob)
	r.Delete("/job/{id}", h.DeleteJob)
	r.Post("/add-job", h.AddJob)
	r.Get("/edit-job/{id}", h.GetJob)
	r.Put("/edit-job/{id}", h.UpdateJob)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "page not found")
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// jobView is a job as listed, with its description excerpt
type jobView struct {
	models.Job
	Excerpt string `json:"excerpt"`
}

func (h *Handlers) views(list []models.Job) []jobView {
	out := make([]jobView, 0, len(list))
	for _, job := range list {
		out = append(out, jobView{Job: job, Excerpt: job.Excerpt(h.opts.ExcerptLength)})
	}
	return out
}
