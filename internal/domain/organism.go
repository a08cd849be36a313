package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// OrganismStatus represents the processing state of an organism.
type OrganismStatus string

// Possible organism status values. The empty string means the organism
// has never been processed.
const (
	OrganismStatusUnset    OrganismStatus = ""
	OrganismStatusPending  OrganismStatus = "pending"
	OrganismStatusComplete OrganismStatus = "complete"
	OrganismStatusError    OrganismStatus = "error"
)

// MaxJobErrorLength is the maximum number of bytes stored in JobError.
// Longer messages are truncated before persisting.
const MaxJobErrorLength = 1000

// Common validation errors for Organism
var (
	ErrEmptyOrganismID     = errors.New("organism ID cannot be empty")
	ErrEmptyOrganismCode   = errors.New("organism code cannot be empty")
	ErrEmptyOrganismName   = errors.New("organism name cannot be empty")
	ErrInvalidOrganismStatus = errors.New("invalid organism status")
)

// Organism represents a biological organism registered for processing.
// The Code is the stable KEGG identifier (e.g. "eco", "hsa"); it is
// unique across organisms. Status, JobID and JobError track the most
// recent processing job and are only mutated by the job orchestrator and
// the process service.
type Organism struct {
	ID        uuid.UUID      `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Status    OrganismStatus `json:"status"`
	JobID     string         `json:"job_id,omitempty"`
	JobError  string         `json:"job_error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewOrganism creates a new Organism with the given code and display name.
// It generates a new UUID, leaves the status unset, and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewOrganism(code, name string) (*Organism, error) {
	organism := &Organism{
		ID:        uuid.New(),
		Code:      code,
		Name:      name,
		Status:    OrganismStatusUnset,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := organism.Validate(); err != nil {
		return nil, err
	}

	return organism, nil
}

// Validate checks if the Organism has valid data.
// Returns an error if any field fails validation.
func (o *Organism) Validate() error {
	if o.ID == uuid.Nil {
		return ErrEmptyOrganismID
	}

	if o.Code == "" {
		return ErrEmptyOrganismCode
	}

	if o.Name == "" {
		return ErrEmptyOrganismName
	}

	if !isValidOrganismStatus(o.Status) {
		return ErrInvalidOrganismStatus
	}

	return nil
}

// MarkPending records that a processing job has been accepted for this
// organism. The previous error text is cleared.
func (o *Organism) MarkPending(jobID string) {
	o.Status = OrganismStatusPending
	o.JobID = jobID
	o.JobError = ""
	o.UpdatedAt = time.Now().UTC()
}

// MarkComplete records a successful processing run.
func (o *Organism) MarkComplete() {
	o.Status = OrganismStatusComplete
	o.JobError = ""
	o.UpdatedAt = time.Now().UTC()
}

// MarkError records a failed processing run. The message is truncated to
// MaxJobErrorLength bytes.
func (o *Organism) MarkError(message string) {
	o.Status = OrganismStatusError
	o.JobError = TruncateError(message)
	o.UpdatedAt = time.Now().UTC()
}

// TruncateError shortens an error message to MaxJobErrorLength bytes so
// it fits the job_error column.
func TruncateError(message string) string {
	if len(message) > MaxJobErrorLength {
		return message[:MaxJobErrorLength]
	}
	return message
}

// isValidOrganismStatus checks if the given status is a valid OrganismStatus.
func isValidOrganismStatus(status OrganismStatus) bool {
	switch status {
	case OrganismStatusUnset, OrganismStatusPending,
		OrganismStatusComplete, OrganismStatusError:
		return true
	default:
		return false
	}
}
