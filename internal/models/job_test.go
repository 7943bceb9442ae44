package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNewJob() NewJob {
	return NewJob{
		Title:       "Senior Go Developer",
		Type:        JobTypeFullTime,
		Location:    "Boston, MA",
		Description: "Build and run the postings API.",
		Salary:      "$100K - 125K",
		Company: Company{
			Name:         "NewTek Solutions",
			Description:  "A technology company.",
			ContactEmail: "contact@teksolutions.com",
			ContactPhone: "555-555-5555",
		},
	}
}

func TestNewJobValidate(t *testing.T) {
	require.NoError(t, sampleNewJob().Validate())

	tests := []struct {
		name   string
		mutate func(*NewJob)
	}{
		{"missing title", func(n *NewJob) { n.Title = "" }},
		{"missing type", func(n *NewJob) { n.Type = "" }},
		{"missing location", func(n *NewJob) { n.Location = "" }},
		{"missing salary", func(n *NewJob) { n.Salary = "" }},
		{"missing company name", func(n *NewJob) { n.Company.Name = "" }},
		{"bad contact email", func(n *NewJob) { n.Company.ContactEmail = "not-an-email" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := sampleNewJob()
			tt.mutate(&job)
			err := job.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidJob)
		})
	}
}

func TestNewJobValidate_EmptyEmailAllowed(t *testing.T) {
	job := sampleNewJob()
	job.Company.ContactEmail = ""
	assert.NoError(t, job.Validate())
}

func TestJobValidate_RequiresID(t *testing.T) {
	job := sampleNewJob().WithID("")
	err := job.Validate()
	require.ErrorIs(t, err, ErrInvalidJob)
	assert.Contains(t, err.Error(), "id is required")

	assert.NoError(t, sampleNewJob().WithID("7").Validate())
}

func TestWithIDAndFields(t *testing.T) {
	n := sampleNewJob()
	job := n.WithID("42")
	assert.Equal(t, "42", job.ID)
	assert.Equal(t, n, job.Fields())
}

func TestExcerpt(t *testing.T) {
	job := Job{Description: "short"}
	assert.Equal(t, "short", job.Excerpt(90))

	job.Description = "abcdefghij"
	assert.Equal(t, "abcde...", job.Excerpt(5))
	assert.Equal(t, "abcdefghij", job.Excerpt(0))

	job.Description = "héllo wörld"
	assert.Equal(t, "héllo...", job.Excerpt(6))
}
