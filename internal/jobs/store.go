package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"job-board-go/internal/fetch"
	"job-board-go/internal/logging"
	"job-board-go/internal/metrics"
	"job-board-go/internal/models"
	"job-board-go/internal/storage"
)

var (
	// ErrMutationInProgress is returned when another add/update/delete for the same id has not finished.
	ErrMutationInProgress = errors.New("another change to this job is in progress")
	// ErrMissingID is returned when an update or delete names no job.
	ErrMissingID = errors.New("job id is required")
)

// collectionResource names the bulk read in logs.
const collectionResource = "jobs"

// Snapshot is a consistent view of the cache. Version changes whenever the cache does.
type Snapshot struct {
	Jobs    []models.Job
	Loading bool
	Err     error
	Version uint64
}

type opKind int

const (
	opAdd opKind = iota
	opUpdate
	opDelete
)

type mutation struct {
	kind opKind
	job  models.Job
}

// Store is the session cache of the job collection. Mutations go to the backend first and
// only touch the cache after the backend call succeeds.
type Store struct {
	backend storage.Store
	logger  logging.Logger
	hook    *fetch.Hook[[]models.Job]

	mu       sync.RWMutex
	jobs     []models.Job
	loading  bool
	loadErr  error
	version  uint64
	inflight map[string]struct{}

	// bulk reads in flight and the mutations finished since the oldest of them started
	loadSeq    uint64
	appliedSeq uint64
	journal    []mutation
}

func NewStore(backend storage.Store, logger logging.Logger) *Store {
	return &Store{
		backend:  backend,
		logger:   logger,
		hook:     fetch.New(fetch.Jobs(backend), logger),
		jobs:     []models.Job{},
		loading:  true,
		inflight: make(map[string]struct{}),
	}
}

// Load performs the bulk read and blocks until it settles or ctx ends.
// A failed read is recorded in Err and also returned. If ctx ends first the read
// keeps running and its result is applied when it settles.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loadSeq++
	if s.loadSeq == 1 {
		s.hook.Set(fetch.Query{Resource: collectionResource})
	} else {
		s.hook.Refresh()
	}
	s.mu.Unlock()

	if settled, err := s.awaitLoad(ctx); settled {
		return err
	}
	if err := ctx.Err(); err != nil {
		go s.awaitLoad(context.Background())
		return fmt.Errorf("job collection load abandoned: %w", err)
	}
	return errors.New("job collection load abandoned: store closed")
}

// awaitLoad waits for the newest bulk read and applies it once. It reports false
// when ctx ends or the store is closed before the read settles.
func (s *Store) awaitLoad(ctx context.Context) (bool, error) {
	for {
		if state := s.hook.Wait(ctx); state.Loading {
			return false, nil
		}

		// Refresh only happens under s.mu, so a settled state seen here belongs to the newest load.
		s.mu.Lock()
		state := s.hook.State()
		if state.Loading {
			s.mu.Unlock()
			continue
		}
		if s.appliedSeq < s.loadSeq {
			s.applyLoadLocked(state)
		}
		err := s.loadErr
		s.mu.Unlock()
		return true, err
	}
}

// Reload re-reads the collection, keeping the current jobs visible until it settles.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Store) applyLoadLocked(state fetch.State[[]models.Job]) {
	s.appliedSeq = s.loadSeq
	s.loading = false
	replayed := len(s.journal)

	switch {
	case state.Err != nil:
		s.loadErr = state.Err
	case state.HasData:
		s.loadErr = nil
		s.jobs = dedupe(state.Data)
		for _, m := range s.journal {
			s.jobs = apply(s.jobs, m)
		}
	}
	s.journal = nil
	s.changedLocked()

	if s.loadErr != nil {
		s.logger.Warn("Job collection load failed", "cached", len(s.jobs), "error", s.loadErr)
		return
	}
	s.logger.Info("Job collection loaded", "jobs", len(s.jobs), "replayed", replayed)
}

// Close stops any bulk read in flight. The cached jobs stay readable.
func (s *Store) Close() {
	s.hook.Close()
}

// AddJob validates and creates the job, then puts it at the front of the cache.
func (s *Store) AddJob(ctx context.Context, newJob models.NewJob) (models.Job, error) {
	if err := newJob.Validate(); err != nil {
		return models.Job{}, err
	}

	created, err := s.backend.CreateJob(ctx, newJob)
	metrics.JobMutationsTotal.WithLabelValues("add", metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Error("Failed to add job", "title", newJob.Title, "error", err)
		return models.Job{}, fmt.Errorf("failed to add job: %w", err)
	}
	if created.ID == "" {
		return models.Job{}, fmt.Errorf("failed to add job: backend returned a job without an id")
	}

	s.mu.Lock()
	s.commitLocked(mutation{kind: opAdd, job: *created})
	s.mu.Unlock()

	s.logger.Info("Job added", "id", created.ID, "title", created.Title)
	return *created, nil
}

// UpdateJob replaces the job with the same id once the backend accepts the change.
func (s *Store) UpdateJob(ctx context.Context, job models.Job) (models.Job, error) {
	if job.ID == "" {
		return models.Job{}, ErrMissingID
	}
	if err := job.Validate(); err != nil {
		return models.Job{}, err
	}
	if err := s.acquire(job.ID); err != nil {
		return models.Job{}, err
	}
	defer s.release(job.ID)

	updated, err := s.backend.UpdateJob(ctx, job)
	metrics.JobMutationsTotal.WithLabelValues("update", metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Error("Failed to update job", "id", job.ID, "error", err)
		return models.Job{}, fmt.Errorf("failed to update job %s: %w", job.ID, err)
	}

	result := *updated
	if result.ID == "" {
		result.ID = job.ID
	}

	s.mu.Lock()
	s.commitLocked(mutation{kind: opUpdate, job: result})
	s.mu.Unlock()

	s.logger.Info("Job updated", "id", result.ID)
	return result, nil
}

// DeleteJob removes the job from the backend and then from the cache.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	if err := s.acquire(id); err != nil {
		return err
	}
	defer s.release(id)

	err := s.backend.DeleteJob(ctx, id)
	metrics.JobMutationsTotal.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Error("Failed to delete job", "id", id, "error", err)
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}

	s.mu.Lock()
	s.commitLocked(mutation{kind: opDelete, job: models.Job{ID: id}})
	s.mu.Unlock()

	s.logger.Info("Job deleted", "id", id)
	return nil
}

func (s *Store) acquire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[id]; busy {
		return fmt.Errorf("%w: %s", ErrMutationInProgress, id)
	}
	s.inflight[id] = struct{}{}
	return nil
}

func (s *Store) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func (s *Store) commitLocked(m mutation) {
	s.jobs = apply(s.jobs, m)
	if s.appliedSeq < s.loadSeq {
		s.journal = append(s.journal, m)
	}
	s.changedLocked()
}

func (s *Store) changedLocked() {
	s.version++
	metrics.CachedJobs.Set(float64(len(s.jobs)))
}

// Jobs returns a copy of the cached collection.
func (s *Store) Jobs() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneJobs(s.jobs)
}

// Loading reports whether the first bulk read is still outstanding.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err is the error of the most recent bulk read, if it failed.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Jobs:    cloneJobs(s.jobs),
		Loading: s.loading,
		Err:     s.loadErr,
		Version: s.version,
	}
}

// apply returns jobs with m applied. Replaying a mutation is harmless.
func apply(jobs []models.Job, m mutation) []models.Job {
	switch m.kind {
	case opAdd:
		out := make([]models.Job, 0, len(jobs)+1)
		out = append(out, m.job)
		for _, j := range jobs {
			if j.ID != m.job.ID {
				out = append(out, j)
			}
		}
		return out
	case opUpdate:
		out := cloneJobs(jobs)
		for i := range out {
			if out[i].ID == m.job.ID {
				out[i] = m.job
			}
		}
		return out
	case opDelete:
		out := make([]models.Job, 0, len(jobs))
		for _, j := range jobs {
			if j.ID != m.job.ID {
				out = append(out, j)
			}
		}
		return out
	default:
		return jobs
	}
}

// dedupe keeps the first occurrence of every id.
func dedupe(jobs []models.Job) []models.Job {
	seen := make(map[string]struct{}, len(jobs))
	out := make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		if _, ok := seen[j.ID]; ok {
			continue
		}
		seen[j.ID] = struct{}{}
		out = append(out, j)
	}
	return out
}

func cloneJobs(jobs []models.Job) []models.Job {
	out := make([]models.Job, len(jobs))
	copy(out, jobs)
	return out
}
