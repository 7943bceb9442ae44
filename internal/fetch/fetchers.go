package fetch

import (
	"context"
	"fmt"

	"job-board-go/internal/models"
	"job-board-go/internal/storage"
	"job-board-go/pkg/httpclient"
)

// URL treats Query.Resource as an absolute URL and decodes its JSON body into T.
// Limit is sent as the _limit query parameter.
func URL[T any](client *httpclient.HttpClient) Fetcher[T] {
	return func(ctx context.Context, q Query) (T, error) {
		var out T

		resp, err := client.Get(ctx, storage.ListURL(q.Resource, q.Limit))
		if err != nil {
			return out, fmt.Errorf("failed to fetch %s: %w", q.Resource, err)
		}
		defer resp.Body.Close()

		if err := storage.DecodeResponse(resp, &out); err != nil {
			return out, err
		}
		return out, nil
	}
}

// Jobs lists jobs from a backend binding. The resource name is only used for logging.
func Jobs(backend storage.Store) Fetcher[[]models.Job] {
	return func(ctx context.Context, q Query) ([]models.Job, error) {
		return backend.ListJobs(ctx, storage.ListOptions{Limit: q.Limit})
	}
}
