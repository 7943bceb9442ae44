package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"job-board-go/internal/fetch"
	"job-board-go/internal/jobs"
	"job-board-go/internal/logging"
	"job-board-go/internal/models"
	"job-board-go/internal/storage"
)

// Defaults the add form starts with
const (
	defaultJobType = models.JobTypeFullTime
	defaultSalary  = "Under $50K"
)

type Handlers struct {
	store  *jobs.Store
	loader *jobs.DetailLoader
	recent fetch.Fetcher[[]models.Job]
	opts   Options
	logger logging.Logger
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"jobs":    len(snap.Jobs),
		"loading": snap.Loading,
	})
}

// Home shows the most recent postings. The read lives as long as the request.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	hook := fetch.New(h.recent, h.logger)
	defer hook.Close()

	hook.Set(fetch.Query{Resource: "recent jobs", Limit: h.opts.RecentLimit})
	state := hook.Wait(r.Context())

	if state.Err != nil {
		writeError(w, http.StatusBadGateway, state.Err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recentJobs": h.views(state.Data),
		"loading":    state.Loading,
	})
}

func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.Filter{
		Search: r.URL.Query().Get("q"),
		Type:   r.URL.Query().Get("type"),
	}

	resp := map[string]any{
		"jobs":    h.views(h.store.Filter(filter)),
		"types":   h.store.Types(),
		"loading": h.store.Loading(),
	}
	if err := h.store.Err(); err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetJob serves both the detail view and the edit form preload.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job := h.loader.Load(r.Context(), map[string]string{"id": chi.URLParam(r, "id")})
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handlers) AddJob(w http.ResponseWriter, r *http.Request) {
	var newJob models.NewJob
	if err := json.NewDecoder(r.Body).Decode(&newJob); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if newJob.Type == "" {
		newJob.Type = defaultJobType
	}
	if newJob.Salary == "" {
		newJob.Salary = defaultSalary
	}

	created, err := h.store.AddJob(r.Context(), newJob)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var job models.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	job.ID = chi.URLParam(r, "id")

	updated, err := h.store.UpdateJob(r.Context(), job)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteJob(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidJob), errors.Is(err, jobs.ErrMissingID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, jobs.ErrMutationInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
