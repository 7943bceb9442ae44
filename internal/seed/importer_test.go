package seed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-board-go/internal/logging"
	"job-board-go/internal/models"
	"job-board-go/internal/storage"
)

const fixture = `{
  "jobs": [
    {
      "id": "1",
      "title": "Senior React Developer",
      "type": "Full-Time",
      "location": "Boston, MA",
      "description": "We are seeking a talented Front-End Developer.",
      "salary": "$70K - $80K",
      "company": {"name": "NewTek Solutions", "contactEmail": "contact@teksolutions.com"}
    },
    {
      "id": 2,
      "title": "senior react developer ",
      "type": "Full-Time",
      "location": "boston, ma",
      "description": "Same posting, different casing.",
      "salary": "$70K - $80K",
      "company": {"name": "NewTek Solutions"}
    },
    {
      "title": "Front-End Engineer (React & Redux)",
      "type": "Part-Time",
      "location": "Miami, FL",
      "description": "Join our team.",
      "salary": "$70K - $80K",
      "company": {"name": "Veneer Solutions"}
    },
    {
      "title": "",
      "type": "Remote",
      "location": "Anywhere",
      "description": "Missing a title.",
      "salary": "$100K",
      "company": {"name": "Nobody"}
    }
  ]
}`

func newLocal(t *testing.T) *storage.LocalStore {
	t.Helper()
	backend, err := storage.NewInMemoryLocalStore()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestImport_WrappedFixture(t *testing.T) {
	backend := newLocal(t)
	importer := NewImporter(backend, 0, logging.Nop())

	result, err := importer.Import(context.Background(), strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Equal(t, Result{Read: 4, Duplicates: 1, Invalid: 1, Saved: 2}, result)

	jobs, err := backend.ListJobs(context.Background(), storage.ListOptions{})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.NotEqual(t, "1", jobs[1].ID)
}

func TestImport_PlainArraySkipsStoredJobs(t *testing.T) {
	backend := newLocal(t)
	ctx := context.Background()

	_, err := backend.CreateJob(ctx, models.NewJob{
		Title:    "Go Developer",
		Type:     models.JobTypeRemote,
		Location: "Anywhere",
		Company:  models.Company{Name: "Gophers"},
	})
	require.NoError(t, err)

	input := `[
		{"title": "Go Developer", "type": "Remote", "location": "Anywhere", "description": "d", "salary": "s", "company": {"name": "Gophers"}},
		{"title": "Rust Developer", "type": "Remote", "location": "Anywhere", "description": "d", "salary": "s", "company": {"name": "Crabs"}}
	]`
	var logs bytes.Buffer
	logger := logging.NewSlogLogger(&logs, slog.LevelDebug, "json")

	result, err := NewImporter(backend, 10, logger).Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, result.Saved)

	assert.Contains(t, logs.String(), "Skipping job already stored")
	assert.Contains(t, logs.String(), `"known":2`)
}

func TestImport_RejectsMalformedInput(t *testing.T) {
	_, err := NewImporter(newLocal(t), 0, logging.Nop()).Import(context.Background(), strings.NewReader("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse seed data")
}

// flakyBatchStore fails every batch and any single create whose title starts with "broken".
type flakyBatchStore struct {
	storage.Store
	batches int
}

func (f *flakyBatchStore) SaveJobs(ctx context.Context, jobs []models.NewJob) error {
	f.batches++
	return errors.New("batch insert not supported")
}

func (f *flakyBatchStore) CreateJob(ctx context.Context, job models.NewJob) (*models.Job, error) {
	if strings.HasPrefix(job.Title, "broken") {
		return nil, errors.New("row rejected")
	}
	return f.Store.CreateJob(ctx, job)
}

func TestImport_FallsBackToIndividualSaves(t *testing.T) {
	backend := &flakyBatchStore{Store: newLocal(t)}

	input := `[
		{"title": "one", "type": "Remote", "location": "x", "description": "d", "salary": "s", "company": {"name": "c"}},
		{"title": "broken two", "type": "Remote", "location": "x", "description": "d", "salary": "s", "company": {"name": "c"}},
		{"title": "three", "type": "Remote", "location": "x", "description": "d", "salary": "s", "company": {"name": "c"}}
	]`
	result, err := NewImporter(backend, 2, logging.Nop()).Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, backend.batches)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 1, result.Failed)
}

func TestImportFile_Missing(t *testing.T) {
	_, err := NewImporter(newLocal(t), 0, logging.Nop()).ImportFile(context.Background(), "does/not/exist.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open seed file")
}

func TestImport_RateLimitedWritesStopOnCancel(t *testing.T) {
	backend := &flakyBatchStore{Store: newLocal(t)}

	input := `[
		{"title": "one", "type": "Remote", "location": "x", "description": "d", "salary": "s", "company": {"name": "c"}},
		{"title": "two", "type": "Remote", "location": "x", "description": "d", "salary": "s", "company": {"name": "c"}},
		{"title": "three", "type": "Remote", "location": "x", "description": "d", "salary": "s", "company": {"name": "c"}}
	]`

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// a burst of two writes: the failed batch and the first single create
	importer := NewImporter(backend, 10, logging.Nop()).WithRateLimit(2)
	result, err := importer.Import(ctx, strings.NewReader(input))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 1, backend.batches)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)

	rl.Stop() // safe to call twice
}
