package extractor

import (
	"testing"

	"github.com/aholston/watchdogai/internal/model"
)

func mkFinding(cat model.Category, conf float64, timeline string, systems, evidence []string) model.Finding {
	return model.Finding{
		ID:              "f-" + string(cat),
		Category:        cat,
		Severity:        model.SeverityHigh,
		Confidence:      conf,
		Issue:           "issue",
		Timeline:        timeline,
		AffectedSystems: systems,
		EvidenceIDs:     evidence,
	}
}

func TestMergeFindingsEmpty(t *testing.T) {
	if got := mergeFindings(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestMergeFindingsDistinctCategoriesKept(t *testing.T) {
	fs := []model.Finding{
		mkFinding(model.CategoryBruteForce, 0.8, "unknown", nil, []string{"r1"}),
		mkFinding(model.CategoryPerformance, 0.6, "unknown", nil, []string{"r1"}),
	}
	if got := mergeFindings(fs); len(got) != 2 {
		t.Fatalf("different categories merged: %d findings", len(got))
	}
}

func TestMergeFindingsNoEvidenceOverlapKept(t *testing.T) {
	fs := []model.Finding{
		mkFinding(model.CategoryBruteForce, 0.8, "unknown", nil, []string{"r1"}),
		mkFinding(model.CategoryBruteForce, 0.6, "unknown", nil, []string{"r2"}),
	}
	if got := mergeFindings(fs); len(got) != 2 {
		t.Fatalf("findings without shared evidence merged: %d", len(got))
	}
}

func TestMergeFindingsOverlapMerged(t *testing.T) {
	fs := []model.Finding{
		mkFinding(model.CategoryBruteForce, 0.7, "unknown", []string{"web1"}, []string{"r1", "r2"}),
		mkFinding(model.CategoryBruteForce, 0.9, "unknown", []string{"web2"}, []string{"r2", "r3"}),
	}
	got := mergeFindings(fs)
	if len(got) != 1 {
		t.Fatalf("expected 1 merged finding, got %d", len(got))
	}
	f := got[0]
	if f.Confidence != 0.9 {
		t.Fatalf("lower confidence won: %f", f.Confidence)
	}
	if len(f.EvidenceIDs) != 3 {
		t.Fatalf("evidence not unioned: %v", f.EvidenceIDs)
	}
	if len(f.AffectedSystems) != 2 {
		t.Fatalf("systems not unioned: %v", f.AffectedSystems)
	}
}

func TestMergeFindingsTimelineTokenOverlap(t *testing.T) {
	a := mkFinding(model.CategoryNetwork, 0.5, "2026-03-01 10:00 to 10:05", nil, []string{"r1"})
	b := mkFinding(model.CategoryNetwork, 0.6, "around 10:05 on 2026-03-01", nil, []string{"r1"})
	if got := mergeFindings([]model.Finding{a, b}); len(got) != 1 {
		t.Fatalf("token-overlapping timelines not merged: %d", len(got))
	}

	c := mkFinding(model.CategoryNetwork, 0.5, "yesterday-morning", nil, []string{"r1"})
	d := mkFinding(model.CategoryNetwork, 0.6, "last-week", nil, []string{"r1"})
	if got := mergeFindings([]model.Finding{c, d}); len(got) != 2 {
		t.Fatalf("disjoint timelines merged: %d", len(got))
	}
}

func TestMergeFindingsPreservesFirstOccurrenceOrder(t *testing.T) {
	fs := []model.Finding{
		mkFinding(model.CategoryPerformance, 0.4, "unknown", nil, []string{"p1"}),
		mkFinding(model.CategoryBruteForce, 0.7, "unknown", nil, []string{"b1"}),
		mkFinding(model.CategoryPerformance, 0.9, "unknown", nil, []string{"p1"}),
	}
	got := mergeFindings(fs)
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	if got[0].Category != model.CategoryPerformance || got[1].Category != model.CategoryBruteForce {
		t.Fatalf("first-occurrence order lost: %v, %v", got[0].Category, got[1].Category)
	}
	if got[0].Confidence != 0.9 {
		t.Fatalf("merge into first slot kept wrong confidence: %f", got[0].Confidence)
	}
}
