package model

import "time"

// CategoryGroup is one category's findings within a report, in insertion order.
type CategoryGroup struct {
	Category Category  `json:"category"`
	Findings []Finding `json:"findings"`
}

// Report is a derived summary across all known findings. It is recomputed on
// demand and is never a source of truth.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	TotalLogs   int             `json:"total_logs"`
	HighCount   int             `json:"high_count"`
	MediumCount int             `json:"medium_count"`
	LowCount    int             `json:"low_count"`
	Categories  []CategoryGroup `json:"categories"`
}

// TotalFindings returns the number of findings across all category groups.
func (r Report) TotalFindings() int {
	n := 0
	for _, g := range r.Categories {
		n += len(g.Findings)
	}
	return n
}
