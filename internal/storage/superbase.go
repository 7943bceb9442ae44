package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	supabase "github.com/nedpals/supabase-go"
	postgrest "github.com/nedpals/supabase-go/postgrest/pkg"

	"job-board-go/internal/models"
)

// SupabaseStore uses the nedpals/supabase-go SDK to read and write jobs.
type SupabaseStore struct {
	client *supabase.Client
	table  string
}

// NewSupabaseStore creates a SupabaseStore. It reads SUPABASE_URL and SUPABASE_KEY
// from environment variables if empty values are provided.
func NewSupabaseStore(supabaseURL, supabaseKey, table string) (*SupabaseStore, error) {
	if supabaseURL == "" {
		supabaseURL = os.Getenv("SUPABASE_URL")
	}
	if supabaseKey == "" {
		supabaseKey = os.Getenv("SUPABASE_KEY")
	}
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided via args or SUPABASE_URL / SUPABASE_KEY env vars")
	}
	if table == "" {
		table = "jobs"
	}

	// CreateClient returns *supabase.Client (no error)
	client := supabase.CreateClient(supabaseURL, supabaseKey)
	// deletes report the rows they removed, so a missing id can be told apart
	client.DB.AddHeader("Prefer", "return=representation")
	return &SupabaseStore{client: client, table: table}, nil
}

// jobRow is the table's wire shape. Ids may be bigint or uuid columns.
type jobRow struct {
	ID          rowID          `json:"id"`
	Title       string         `json:"title"`
	Type        string         `json:"type"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	Salary      string         `json:"salary"`
	Company     models.Company `json:"company"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
}

func (r jobRow) toJob() models.Job {
	return models.Job{
		ID:          string(r.ID),
		Title:       r.Title,
		Type:        r.Type,
		Location:    r.Location,
		Description: r.Description,
		Salary:      r.Salary,
		Company:     r.Company,
	}
}

// rowID accepts both numeric and string ids.
type rowID string

func (id *rowID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unsupported id value %s: %w", data, err)
	}
	*id = rowID(n.String())
	return nil
}

func (s *SupabaseStore) ListJobs(ctx context.Context, opts ListOptions) ([]models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := s.client.DB.From(s.table).Select("*").OrderBy("created_at", "desc")
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var rows []jobRow
	if err := query.ExecuteWithContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("supabase select failed: %w", normalizeError(err))
	}

	jobs := make([]models.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.toJob())
	}
	return jobs, nil
}

func (s *SupabaseStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []jobRow
	if err := s.client.DB.From(s.table).Select("*").Eq("id", id).ExecuteWithContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("supabase select of job %s failed: %w", id, normalizeError(err))
	}
	return singleRow(rows, id)
}

func (s *SupabaseStore) CreateJob(ctx context.Context, job models.NewJob) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []jobRow
	if err := s.client.DB.From(s.table).Insert(job).ExecuteWithContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("supabase insert failed: %w", normalizeError(err))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase insert returned no rows")
	}
	created := rows[0].toJob()
	return &created, nil
}

func (s *SupabaseStore) UpdateJob(ctx context.Context, job models.Job) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []jobRow
	if err := s.client.DB.From(s.table).Update(job.Fields()).Eq("id", job.ID).ExecuteWithContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("supabase update of job %s failed: %w", job.ID, normalizeError(err))
	}
	return singleRow(rows, job.ID)
}

func (s *SupabaseStore) DeleteJob(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var rows []jobRow
	if err := s.client.DB.From(s.table).Delete().Eq("id", id).ExecuteWithContext(ctx, &rows); err != nil {
		return fmt.Errorf("supabase delete of job %s failed: %w", id, normalizeError(err))
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// SaveJobs saves multiple jobs in a single batch operation for better performance
func (s *SupabaseStore) SaveJobs(ctx context.Context, jobs []models.NewJob) error {
	if len(jobs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var rows []jobRow
	if err := s.client.DB.From(s.table).Insert(jobs).ExecuteWithContext(ctx, &rows); err != nil {
		return fmt.Errorf("supabase batch insert of %d jobs failed: %w", len(jobs), normalizeError(err))
	}
	return nil
}

func singleRow(rows []jobRow, id string) (*models.Job, error) {
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		job := rows[0].toJob()
		return &job, nil
	default:
		return nil, fmt.Errorf("expected exactly one row for job %s, got %d", id, len(rows))
	}
}

// normalizeError turns a PostgREST error body into a StatusError.
func normalizeError(err error) error {
	var reqErr *postgrest.RequestError
	if !errors.As(err, &reqErr) {
		return err
	}
	message := reqErr.Message
	if reqErr.Code != "" {
		message = reqErr.Code + ": " + message
	}
	return &StatusError{StatusCode: reqErr.HTTPStatusCode, Message: message}
}
