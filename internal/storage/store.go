package storage

import (
	"context"
	"errors"
	"fmt"

	"job-board-go/internal/models"
)

// ErrNotFound is returned when no job matches the requested identifier.
var ErrNotFound = errors.New("job not found")

// Store is the data layer contract shared by every backend binding.
type Store interface {
	// ListJobs returns jobs most recent first. A zero Limit returns all of them.
	ListJobs(ctx context.Context, opts ListOptions) ([]models.Job, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	CreateJob(ctx context.Context, job models.NewJob) (*models.Job, error)
	UpdateJob(ctx context.Context, job models.Job) (*models.Job, error)
	DeleteJob(ctx context.Context, id string) error
	SaveJobs(ctx context.Context, jobs []models.NewJob) error // Batch create for seeding
}

type ListOptions struct {
	Limit int
}

// StatusError is a non-success response from an HTTP-based backend.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("jobs API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("jobs API returned status %d: %s", e.StatusCode, e.Message)
}
