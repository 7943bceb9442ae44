package seed

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"

	"job-board-go/internal/models"
)

// Deduplicator drops postings that share title, company and location
type Deduplicator struct {
	seenJobs map[string]bool
	mu       sync.RWMutex
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		seenJobs: make(map[string]bool),
	}
}

// Remember marks jobs as seen without returning them, e.g. jobs already stored in the backend
func (d *Deduplicator) Remember(jobs []models.Job) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, job := range jobs {
		d.seenJobs[jobHash(job.Fields())] = true
	}
}

// RemoveDuplicates returns the jobs not seen before, in input order
func (d *Deduplicator) RemoveDuplicates(jobs []models.NewJob) []models.NewJob {
	d.mu.Lock()
	defer d.mu.Unlock()

	var uniqueJobs []models.NewJob
	for _, job := range jobs {
		hash := jobHash(job)
		if !d.seenJobs[hash] {
			d.seenJobs[hash] = true
			uniqueJobs = append(uniqueJobs, job)
		}
	}
	return uniqueJobs
}

// IsDuplicate checks a job without recording it
func (d *Deduplicator) IsDuplicate(job models.NewJob) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.seenJobs[jobHash(job)]
}

func (d *Deduplicator) SeenCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.seenJobs)
}

// jobHash normalizes title|company|location and hashes it
func jobHash(job models.NewJob) string {
	title := strings.ToLower(strings.TrimSpace(job.Title))
	company := strings.ToLower(strings.TrimSpace(job.Company.Name))
	location := strings.ToLower(strings.TrimSpace(job.Location))

	key := fmt.Sprintf("%s|%s|%s", title, company, location)
	return fmt.Sprintf("%x", md5.Sum([]byte(key)))
}
