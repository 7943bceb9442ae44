package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidJob is returned when a job fails validation before reaching a backend.
var ErrInvalidJob = errors.New("invalid job")

// Company is the employer record embedded in every job posting.
type Company struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone"`
}

// Job is a job posting. ID is assigned by the backend on create.
type Job struct {
	ID          string  `json:"id"`
	Title       string  `json:"title" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	Location    string  `json:"location" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Salary      string  `json:"salary" validate:"required"`
	Company     Company `json:"company"`
}

// NewJob is a job posting that has not been stored yet.
type NewJob struct {
	Title       string  `json:"title" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	Location    string  `json:"location" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Salary      string  `json:"salary" validate:"required"`
	Company     Company `json:"company"`
}

// Job type values offered by the add and edit forms
const (
	JobTypeFullTime   = "Full-Time"
	JobTypePartTime   = "Part-Time"
	JobTypeRemote     = "Remote"
	JobTypeInternship = "Internship"
)

// WithID attaches a backend-assigned identifier.
func (n NewJob) WithID(id string) Job {
	return Job{
		ID:          id,
		Title:       n.Title,
		Type:        n.Type,
		Location:    n.Location,
		Description: n.Description,
		Salary:      n.Salary,
		Company:     n.Company,
	}
}

// Fields returns the job without its identifier.
func (j Job) Fields() NewJob {
	return NewJob{
		Title:       j.Title,
		Type:        j.Type,
		Location:    j.Location,
		Description: j.Description,
		Salary:      j.Salary,
		Company:     j.Company,
	}
}

// Excerpt returns the first n runes of the description, followed by "..." when truncated.
func (j Job) Excerpt(n int) string {
	runes := []rune(j.Description)
	if n <= 0 || len(runes) <= n {
		return j.Description
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the fields the add-job form requires.
func (n NewJob) Validate() error {
	return validateStruct(n)
}

// Validate checks the fields the edit-job form requires.
func (j Job) Validate() error {
	if strings.TrimSpace(j.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidJob)
	}
	return validateStruct(j)
}

func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	var details []string
	for _, fe := range validationErrors {
		details = append(details, fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidJob, strings.Join(details, "; "))
}
