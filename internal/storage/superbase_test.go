package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-board-go/internal/models"
)

func TestRowID_AcceptsNumbersAndStrings(t *testing.T) {
	var rows []jobRow
	payload := `[
		{"id": 42, "title": "numeric", "company": {"name": "A", "contactEmail": "a@b.co"}},
		{"id": "9f1c", "title": "uuid", "company": {"name": "B"}},
		{"id": null, "title": "missing"}
	]`
	require.NoError(t, json.Unmarshal([]byte(payload), &rows))
	require.Len(t, rows, 3)

	assert.Equal(t, "42", rows[0].toJob().ID)
	assert.Equal(t, "a@b.co", rows[0].toJob().Company.ContactEmail)
	assert.Equal(t, "9f1c", rows[1].toJob().ID)
	assert.Equal(t, "", rows[2].toJob().ID)
}

func TestSingleRow(t *testing.T) {
	_, err := singleRow(nil, "7")
	assert.ErrorIs(t, err, ErrNotFound)

	job, err := singleRow([]jobRow{{ID: "7", Title: "x"}}, "7")
	require.NoError(t, err)
	assert.Equal(t, "7", job.ID)

	_, err = singleRow([]jobRow{{ID: "7"}, {ID: "7"}}, "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one row")
}

func TestNewSupabaseStore_RequiresCredentials(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")

	_, err := NewSupabaseStore("", "", "jobs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")
}

func TestSupabaseStore_ListJobs(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 2, "title": "newest", "created_at": "2025-01-02T00:00:00Z"},
			{"id": 1, "title": "oldest", "created_at": "2025-01-01T00:00:00Z"}]`))
	}))
	defer server.Close()

	store, err := NewSupabaseStore(server.URL, "anon-key", "jobs")
	require.NoError(t, err)

	jobs, err := store.ListJobs(context.Background(), ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "2", jobs[0].ID)
	assert.Equal(t, "newest", jobs[0].Title)
	assert.True(t, strings.HasSuffix(gotPath, "/jobs"), "unexpected path %s", gotPath)
}

func TestSupabaseStore_CancelledContextSkipsCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	store, err := NewSupabaseStore(server.URL, "anon-key", "jobs")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.GetJob(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// supabaseRequest is what the fake PostgREST endpoint saw.
type supabaseRequest struct {
	Method string
	Path   string
	Query  string
	Prefer string
	Body   string
}

func newSupabaseServer(t *testing.T, status int, response string) (*SupabaseStore, *supabaseRequest) {
	t.Helper()
	seen := &supabaseRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*seen = supabaseRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Prefer: r.Header.Get("Prefer"),
			Body:   string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	store, err := NewSupabaseStore(server.URL, "anon-key", "jobs")
	require.NoError(t, err)
	return store, seen
}

func TestSupabaseStore_CreateJobMapsNumericID(t *testing.T) {
	store, seen := newSupabaseServer(t, http.StatusCreated,
		`[{"id": 42, "title": "Go Developer", "type": "Full-Time", "company": {"name": "NewTek"}}]`)

	created, err := store.CreateJob(context.Background(), models.NewJob{
		Title:   "Go Developer",
		Type:    models.JobTypeFullTime,
		Company: models.Company{Name: "NewTek"},
	})
	require.NoError(t, err)
	assert.Equal(t, "42", created.ID)
	assert.Equal(t, "NewTek", created.Company.Name)

	assert.Equal(t, http.MethodPost, seen.Method)
	assert.True(t, strings.HasSuffix(seen.Path, "/jobs"))
	assert.Contains(t, seen.Prefer, "return=representation")
	assert.Contains(t, seen.Body, `"title":"Go Developer"`)
}

func TestSupabaseStore_UpdateMissingJob(t *testing.T) {
	store, seen := newSupabaseServer(t, http.StatusOK, `[]`)

	_, err := store.UpdateJob(context.Background(), models.Job{ID: "7", Title: "changed"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.MethodPatch, seen.Method)
	assert.Contains(t, seen.Query, "id=eq.7")
}

func TestSupabaseStore_UpdateJob(t *testing.T) {
	store, _ := newSupabaseServer(t, http.StatusOK, `[{"id": 7, "title": "changed"}]`)

	updated, err := store.UpdateJob(context.Background(), models.Job{ID: "7", Title: "changed"})
	require.NoError(t, err)
	assert.Equal(t, "7", updated.ID)
	assert.Equal(t, "changed", updated.Title)
}

func TestSupabaseStore_GetMissingJob(t *testing.T) {
	store, seen := newSupabaseServer(t, http.StatusOK, `[]`)

	_, err := store.GetJob(context.Background(), "9")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.MethodGet, seen.Method)
	assert.Contains(t, seen.Query, "id=eq.9")
}

func TestSupabaseStore_DeleteJob(t *testing.T) {
	store, seen := newSupabaseServer(t, http.StatusOK, `[{"id": 3, "title": "gone"}]`)

	require.NoError(t, store.DeleteJob(context.Background(), "3"))
	assert.Equal(t, http.MethodDelete, seen.Method)
	assert.Contains(t, seen.Query, "id=eq.3")
	assert.Contains(t, seen.Prefer, "return=representation")
}

func TestSupabaseStore_DeleteMissingJob(t *testing.T) {
	store, _ := newSupabaseServer(t, http.StatusOK, `[]`)

	err := store.DeleteJob(context.Background(), "3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupabaseStore_SaveJobs(t *testing.T) {
	store, seen := newSupabaseServer(t, http.StatusCreated, `[{"id": 1}, {"id": 2}]`)

	err := store.SaveJobs(context.Background(), []models.NewJob{{Title: "a"}, {Title: "b"}})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, seen.Method)

	var sent []map[string]any
	require.NoError(t, json.Unmarshal([]byte(seen.Body), &sent))
	assert.Len(t, sent, 2)
}

func TestSupabaseStore_ErrorBodySurfaces(t *testing.T) {
	store, _ := newSupabaseServer(t, http.StatusBadRequest,
		`{"code": "23502", "message": "null value in column \"title\" violates not-null constraint"}`)

	_, err := store.CreateJob(context.Background(), models.NewJob{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "23502")
	assert.Contains(t, err.Error(), "violates not-null constraint")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestSupabaseStore_AbortsOnDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()
	defer close(release)

	store, err := NewSupabaseStore(server.URL, "anon-key", "jobs")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = store.ListJobs(ctx, ListOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
