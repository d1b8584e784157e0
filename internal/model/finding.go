package model

import "time"

// Finding is a structured, severity-scored incident derived from one or more
// log records. Findings are never mutated after creation; a re-analysis
// produces a new Finding rather than patching an old one.
type Finding struct {
	ID              string    `json:"id"`
	Category        Category  `json:"category"`
	Severity        Severity  `json:"severity"`
	Confidence      float64   `json:"confidence"` // always in [0,1]
	Issue           string    `json:"issue"`
	Timeline        string    `json:"timeline"`
	AffectedSystems []string  `json:"affected_systems"`
	Recommendation  string    `json:"recommendation"`
	EvidenceIDs     []string  `json:"evidence_record_ids"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasEvidence reports whether the finding cites the given record ID.
func (f Finding) HasEvidence(recordID string) bool {
	for _, id := range f.EvidenceIDs {
		if id == recordID {
			return true
		}
	}
	return false
}
