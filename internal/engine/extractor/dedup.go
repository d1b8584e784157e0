package extractor

import (
	"strings"

	"github.com/aholston/watchdogai/internal/model"
)

// mergeFindings collapses near-duplicate findings produced by different
// batches: same category, overlapping evidence records, and compatible
// timelines describe one underlying incident that happened to span a chunk
// boundary. The higher-confidence finding wins; affected systems and
// evidence are unioned. First-occurrence order is preserved.
func mergeFindings(findings []model.Finding) []model.Finding {
	if len(findings) == 0 {
		return nil
	}

	var merged []model.Finding
	for _, f := range findings {
		idx := -1
		for i, m := range merged {
			if sameIncident(m, f) {
				idx = i
				break
			}
		}
		if idx < 0 {
			merged = append(merged, f)
			continue
		}

		winner, loser := merged[idx], f
		if f.Confidence > winner.Confidence {
			winner, loser = f, winner
		}
		winner.AffectedSystems = unionStrings(winner.AffectedSystems, loser.AffectedSystems)
		winner.EvidenceIDs = unionStrings(winner.EvidenceIDs, loser.EvidenceIDs)
		merged[idx] = winner
	}
	return merged
}

func sameIncident(a, b model.Finding) bool {
	if a.Category != b.Category {
		return false
	}
	if !overlaps(a.EvidenceIDs, b.EvidenceIDs) {
		return false
	}
	return timelinesCompatible(a.Timeline, b.Timeline)
}

func overlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if set[s] {
			return true
		}
	}
	return false
}

// timelinesCompatible treats "unknown" as a wildcard; otherwise the
// free-text timelines must share at least one token.
func timelinesCompatible(a, b string) bool {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" || a == "unknown" || b == "unknown" {
		return true
	}
	if a == b {
		return true
	}
	bTokens := make(map[string]bool)
	for _, tok := range strings.Fields(b) {
		bTokens[tok] = true
	}
	for _, tok := range strings.Fields(a) {
		if bTokens[tok] {
			return true
		}
	}
	return false
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
