package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for GeneRecord
var (
	ErrEmptyGeneID         = errors.New("gene ID cannot be empty")
	ErrEmptyGeneOrganismID = errors.New("gene organism ID cannot be empty")
	ErrEmptyGeneName       = errors.New("gene name cannot be empty")
)

// GeneRecord represents one gene of an organism, as fetched from the
// remote gene database, together with its ortholog annotation. The
// ortholog fields are nil until the resolving stage of a processing job
// fills them in; a gene may legitimately end a run with no ortholog.
type GeneRecord struct {
	ID         uuid.UUID `json:"id"`
	OrganismID uuid.UUID `json:"organism_id"`
	// Name is the source identifier in org:gene form, e.g. "eco:b0001".
	Name        string `json:"name"`
	Description string `json:"description"`

	OrthologName        *string  `json:"ortholog_name,omitempty"`
	OrthologDescription *string  `json:"ortholog_description,omitempty"`
	OrthologSpecies     *string  `json:"ortholog_species,omitempty"`
	OrthologLength      *int     `json:"ortholog_length,omitempty"`
	OrthologSWScore     *int     `json:"ortholog_sw_score,omitempty"`
	OrthologIdentity    *float64 `json:"ortholog_identity,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGeneRecord creates a new GeneRecord for the given organism with no
// ortholog annotation. Returns an error if validation fails.
func NewGeneRecord(organismID uuid.UUID, name, description string) (*GeneRecord, error) {
	gene := &GeneRecord{
		ID:          uuid.New(),
		OrganismID:  organismID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := gene.Validate(); err != nil {
		return nil, err
	}

	return gene, nil
}

// Validate checks if the GeneRecord has valid data.
func (g *GeneRecord) Validate() error {
	if g.ID == uuid.Nil {
		return ErrEmptyGeneID
	}

	if g.OrganismID == uuid.Nil {
		return ErrEmptyGeneOrganismID
	}

	if g.Name == "" {
		return ErrEmptyGeneName
	}

	return nil
}

// HasOrtholog reports whether an ortholog has been recorded for this gene.
func (g *GeneRecord) HasOrtholog() bool {
	return g.OrthologName != nil
}

// SetOrtholog records an ortholog annotation on the gene. The identity
// value is clamped to [0,100] before being stored.
func (g *GeneRecord) SetOrtholog(name, description, species string, identity float64) {
	g.OrthologName = &name
	g.OrthologDescription = &description
	g.OrthologSpecies = &species
	clamped := ClampIdentity(identity)
	g.OrthologIdentity = &clamped
	g.UpdatedAt = time.Now().UTC()
}

// ClampIdentity bounds an identity/confidence value to the [0,100] range.
func ClampIdentity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
