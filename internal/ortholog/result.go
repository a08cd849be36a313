package ortholog

// Outcome classifies what happened when resolving one gene.
type Outcome string

const (
	// OutcomeMatched means an ortholog was selected for the gene.
	OutcomeMatched Outcome = "matched"

	// OutcomeNoAssignment means the gene has no KO group assignment.
	OutcomeNoAssignment Outcome = "no_assignment"

	// OutcomeNoOrtholog means the gene's KO groups contained no genes
	// from other organisms.
	OutcomeNoOrtholog Outcome = "no_ortholog_in_group"

	// OutcomeFailed means resolution for the gene errored after
	// retries. Other genes in the batch are unaffected.
	OutcomeFailed Outcome = "failed"
)

// Result is the resolution outcome for a single gene.
type Result struct {
	// GeneID is the source gene identifier, e.g. "eco:b0002".
	GeneID string

	// Outcome states how resolution ended for this gene.
	Outcome Outcome

	// OrthologID, OrthologSpecies and OrthologDescription are set only
	// when Outcome is OutcomeMatched.
	OrthologID          string
	OrthologSpecies     string
	OrthologDescription string

	// KOID is the KO group that linked the gene to its ortholog, or
	// the gene's first KO group when no ortholog was found in any.
	KOID string

	// Confidence is the selection score of the chosen candidate.
	Confidence float64

	// Err carries the failure for OutcomeFailed results.
	Err error
}

// HasOrtholog reports whether an ortholog was selected.
func (r Result) HasOrtholog() bool {
	return r.Outcome == OutcomeMatched
}
