package jobs

import (
	"strings"

	"job-board-go/internal/models"
)

// Filter narrows the job list. Empty fields match everything.
type Filter struct {
	Search string
	Type   string
}

func (f Filter) Matches(job models.Job) bool {
	if f.Type != "" && job.Type != f.Type {
		return false
	}

	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(job.Title), term) ||
		strings.Contains(strings.ToLower(job.Company.Name), term) ||
		strings.Contains(strings.ToLower(job.Location), term)
}

// Filter returns the cached jobs matching f, in cache order.
func (s *Store) Filter(f Filter) []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if f.Matches(job) {
			matched = append(matched, job)
		}
	}
	return matched
}

// Types returns the distinct job types in the cache, in first-seen order.
func (s *Store) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DistinctTypes(s.jobs)
}

func DistinctTypes(jobs []models.Job) []string {
	seen := make(map[string]struct{})
	types := []string{}
	for _, job := range jobs {
		if job.Type == "" {
			continue
		}
		if _, ok := seen[job.Type]; ok {
			continue
		}
		seen[job.Type] = struct{}{}
		types = append(types, job.Type)
	}
	return types
}
