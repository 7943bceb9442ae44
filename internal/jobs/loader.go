package jobs

import (
	"context"

	"job-board-go/internal/logging"
	"job-board-go/internal/models"
	"job-board-go/internal/storage"
)

// DetailLoader reads a single job for detail and edit views. It never touches the Store cache.
type DetailLoader struct {
	backend storage.Store
	logger  logging.Logger
}

func NewDetailLoader(backend storage.Store, logger logging.Logger) *DetailLoader {
	return &DetailLoader{backend: backend, logger: logger}
}

// Load returns the job named by params["id"], or nil when the id is missing or the read fails.
func (l *DetailLoader) Load(ctx context.Context, params map[string]string) *models.Job {
	id := params["id"]
	if id == "" {
		l.logger.Warn("No job id provided")
		return nil
	}

	job, err := l.backend.GetJob(ctx, id)
	if err != nil {
		l.logger.Error("Error fetching job", "id", id, "error", err)
		return nil
	}
	return job
}
