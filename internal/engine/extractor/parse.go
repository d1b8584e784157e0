package extractor

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aholston/watchdogai/internal/model"
)

// rawFinding is the strict intermediate schema inference responses are
// decoded into. External output is never trusted directly; every field passes
// through validation and defaulting before it becomes a Finding.
type rawFinding struct {
	Category          string   `json:"category"`
	Severity          string   `json:"severity"`
	Confidence        float64  `json:"confidence"`
	Issue             string   `json:"issue"`
	Timeline          string   `json:"timeline"`
	AffectedSystems   []string `json:"affected_systems"`
	Recommendation    string   `json:"recommendation"`
	EvidenceRecordIDs []string `json:"evidence_record_ids"`
}

var errMalformedResponse = errors.New("extractor: malformed inference response")

// parseFindings decodes a completion into zero or more finding candidates.
// Accepts a bare array, a single object, or a {"findings": [...]} wrapper,
// with or without markdown fences.
func parseFindings(text string) ([]rawFinding, error) {
	body := stripFences(text)
	if body == "" {
		return nil, errMalformedResponse
	}

	var list []rawFinding
	if err := json.Unmarshal([]byte(body), &list); err == nil {
		return list, nil
	}

	var wrapper struct {
		Findings []rawFinding `json:"findings"`
	}
	if err := json.Unmarshal([]byte(body), &wrapper); err == nil && wrapper.Findings != nil {
		return wrapper.Findings, nil
	}

	var single rawFinding
	if err := json.Unmarshal([]byte(body), &single); err == nil {
		if single.Issue == "" && single.Category == "" && single.Recommendation == "" {
			return nil, errMalformedResponse
		}
		return []rawFinding{single}, nil
	}

	return nil, errMalformedResponse
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// toFinding validates a candidate and converts it into an immutable Finding.
// known restricts evidence references to records that exist at creation time;
// pass nil to skip the check.
func toFinding(raw rawFinding, known map[string]bool, now time.Time) model.Finding {
	evidence := raw.EvidenceRecordIDs
	if known != nil {
		evidence = evidence[:0:0]
		for _, id := range raw.EvidenceRecordIDs {
			if known[id] {
				evidence = append(evidence, id)
			}
		}
	}

	issue := strings.TrimSpace(raw.Issue)
	if issue == "" {
		issue = "Unspecified issue"
	}
	recommendation := strings.TrimSpace(raw.Recommendation)
	if recommendation == "" {
		recommendation = "Review the cited log records manually."
	}
	timeline := strings.TrimSpace(raw.Timeline)
	if timeline == "" {
		timeline = "unknown"
	}

	return model.Finding{
		ID:              uuid.NewString(),
		Category:        model.ParseCategory(raw.Category),
		Severity:        model.ParseSeverity(raw.Severity),
		Confidence:      clamp01(raw.Confidence),
		Issue:           issue,
		Timeline:        timeline,
		AffectedSystems: dedupeStrings(raw.AffectedSystems),
		Recommendation:  recommendation,
		EvidenceIDs:     evidence,
		CreatedAt:       now,
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func dedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
