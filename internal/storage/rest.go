package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"job-board-go/internal/models"
	"job-board-go/pkg/httpclient"
)

// RESTStore talks to a JSON jobs API rooted at baseURL (e.g. http://host/api).
type RESTStore struct {
	client  *httpclient.HttpClient
	baseURL string
}

func NewRESTStore(client *httpclient.HttpClient, baseURL string) (*RESTStore, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("rest base URL must be provided")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid rest base URL: %w", err)
	}
	return &RESTStore{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *RESTStore) jobsURL() string {
	return s.baseURL + "/jobs"
}

func (s *RESTStore) jobURL(id string) string {
	return s.jobsURL() + "/" + url.PathEscape(id)
}

// ListURL is the collection URL with the optional _limit query.
func ListURL(collectionURL string, limit int) string {
	if limit <= 0 {
		return collectionURL
	}
	sep := "?"
	if strings.Contains(collectionURL, "?") {
		sep = "&"
	}
	return collectionURL + sep + "_limit=" + strconv.Itoa(limit)
}

func (s *RESTStore) ListJobs(ctx context.Context, opts ListOptions) ([]models.Job, error) {
	resp, err := s.client.Get(ctx, ListURL(s.jobsURL(), opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jobs: %w", err)
	}
	defer resp.Body.Close()

	var jobs []models.Job
	if err := DecodeResponse(resp, &jobs); err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return jobs, nil
}

func (s *RESTStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	resp, err := s.client.Get(ctx, s.jobURL(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var job models.Job
	if err := DecodeResponse(resp, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RESTStore) CreateJob(ctx context.Context, newJob models.NewJob) (*models.Job, error) {
	resp, err := s.client.SendJSON(ctx, http.MethodPost, s.jobsURL(), newJob)
	if err != nil {
		return nil, fmt.Errorf("failed to add job: %w", err)
	}
	defer resp.Body.Close()

	var job models.Job
	if err := DecodeResponse(resp, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RESTStore) UpdateJob(ctx context.Context, job models.Job) (*models.Job, error) {
	resp, err := s.client.SendJSON(ctx, http.MethodPut, s.jobURL(job.ID), job)
	if err != nil {
		return nil, fmt.Errorf("failed to update job %s: %w", job.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, job.ID)
	}

	var updated models.Job
	if err := DecodeResponse(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *RESTStore) DeleteJob(ctx context.Context, id string) error {
	resp, err := s.client.SendJSON(ctx, http.MethodDelete, s.jobURL(id), nil)
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return DecodeResponse(resp, nil)
}

// SaveJobs posts each job in turn; the REST API has no batch endpoint.
func (s *RESTStore) SaveJobs(ctx context.Context, jobs []models.NewJob) error {
	for i, job := range jobs {
		if _, err := s.CreateJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job %d of %d: %w", i+1, len(jobs), err)
		}
	}
	return nil
}

// DecodeResponse turns a non-2xx response into a *StatusError and otherwise decodes
// the JSON body into out. A nil out or an empty body is accepted.
func DecodeResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp.StatusCode),
		}
	}

	if out == nil || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse jobs API response: %w", err)
	}
	return nil
}

func errorMessage(body []byte, statusCode int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(statusCode)
}
