package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"job-board-go/internal/logging"
	"job-board-go/internal/metrics"
	"job-board-go/internal/models"
	"job-board-go/internal/storage"
)

const DefaultBatchSize = 50

// Result counts what an import did with each posting it read.
type Result struct {
	Read       int `json:"read"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
	Saved      int `json:"saved"`
	Failed     int `json:"failed"`
}

// Importer loads job fixtures into a backend.
type Importer struct {
	backend      storage.Store
	deduplicator *Deduplicator
	batchSize    int
	rateLimit    int
	logger       logging.Logger
}

func NewImporter(backend storage.Store, batchSize int, logger logging.Logger) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		backend:      backend,
		deduplicator: NewDeduplicator(),
		batchSize:    batchSize,
		logger:       logger,
	}
}

// WithRateLimit caps backend writes (batches and single creates) per minute. Zero disables it.
func (im *Importer) WithRateLimit(perMinute int) *Importer {
	im.rateLimit = perMinute
	return im
}

func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return im.Import(ctx, f)
}

// Import reads a JSON array of jobs, or an object with a "jobs" array, and stores the ones
// not already in the backend.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	var result Result

	jobs, err := decodeJobs(r)
	if err != nil {
		return result, err
	}
	result.Read = len(jobs)

	existing, err := im.backend.ListJobs(ctx, storage.ListOptions{})
	if err != nil {
		return result, fmt.Errorf("failed to list existing jobs: %w", err)
	}
	im.deduplicator.Remember(existing)

	valid := make([]models.NewJob, 0, len(jobs))
	for _, job := range jobs {
		if err := job.Validate(); err != nil {
			im.logger.Warn("Skipping invalid job", "title", job.Title, "error", err)
			result.Invalid++
			continue
		}
		if im.deduplicator.IsDuplicate(job) {
			im.logger.Debug("Skipping job already stored", "title", job.Title, "company", job.Company.Name)
		}
		valid = append(valid, job)
	}

	unique := im.deduplicator.RemoveDuplicates(valid)
	result.Duplicates = len(valid) - len(unique)

	saved, failed, err := im.saveJobs(ctx, unique)
	result.Saved = saved
	result.Failed = failed

	metrics.SeededJobsTotal.WithLabelValues("saved").Add(float64(result.Saved))
	metrics.SeededJobsTotal.WithLabelValues("failed").Add(float64(result.Failed))
	metrics.SeededJobsTotal.WithLabelValues("duplicate").Add(float64(result.Duplicates))
	metrics.SeededJobsTotal.WithLabelValues("invalid").Add(float64(result.Invalid))

	im.logger.Info("Seed import finished",
		"read", result.Read,
		"duplicates", result.Duplicates,
		"invalid", result.Invalid,
		"saved", result.Saved,
		"failed", result.Failed,
		"known", im.deduplicator.SeenCount())
	return result, err
}

// saveJobs stores jobs in batches, falling back to one create per job when a batch fails
func (im *Importer) saveJobs(ctx context.Context, jobs []models.NewJob) (saved, failed int, err error) {
	wait := func(context.Context) error { return nil }
	if im.rateLimit > 0 && len(jobs) > 0 {
		limiter := NewRateLimiter(im.rateLimit)
		defer limiter.Stop()
		wait = limiter.Wait
	}

	for i := 0; i < len(jobs); i += im.batchSize {
		end := i + im.batchSize
		if end > len(jobs) {
			end = len(jobs)
		}

		batch := jobs[i:end]

		if err := wait(ctx); err != nil {
			return saved, failed, err
		}
		if err := im.backend.SaveJobs(ctx, batch); err != nil {
			im.logger.Warn("Batch save failed, falling back to individual saves", "size", len(batch), "error", err)
			for _, job := range batch {
				if err := wait(ctx); err != nil {
					return saved, failed, err
				}
				if _, err := im.backend.CreateJob(ctx, job); err != nil {
					im.logger.Error("Failed to save job", "title", job.Title, "company", job.Company.Name, "error", err)
					failed++
					continue
				}
				saved++
			}
		} else {
			saved += len(batch)
		}

		select {
		case <-ctx.Done():
			return saved, failed, ctx.Err()
		default:
		}
	}
	return saved, failed, nil
}

func decodeJobs(r io.Reader) ([]models.NewJob, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed data: %w", err)
	}

	// NewJob has no id field, so ids in the input are dropped here
	var jobs []models.NewJob
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Jobs []models.NewJob `json:"jobs"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to parse seed data: %w", err)
		}
		jobs = wrapper.Jobs
	} else if err := json.Unmarshal(trimmed, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	return jobs, nil
}
