package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/aholston/watchdogai/internal/model"
	"github.com/aholston/watchdogai/internal/pipeline"
)

func TestRenderMarkdown(t *testing.T) {
	rep := model.Report{
		GeneratedAt: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
		TotalLogs:   42,
		HighCount:   1,
		MediumCount: 1,
		Categories: []model.CategoryGroup{
			{
				Category: model.CategoryBruteForce,
				Findings: []model.Finding{{
					Issue:           "Repeated SSH failures from 10.0.0.9",
					Severity:        model.SeverityHigh,
					Confidence:      0.9,
					Timeline:        "Jan 15 10:30",
					Recommendation:  "Block the source address.",
					AffectedSystems: []string{"web-01"},
				}},
			},
			{
				Category: model.CategoryPerformance,
				Findings: []model.Finding{{
					Issue:          "Slow database queries",
					Severity:       model.SeverityMedium,
					Confidence:     0.6,
					Timeline:       "unknown",
					Recommendation: "Add an index.",
				}},
			},
		},
	}

	md := renderMarkdown(rep)
	for _, want := range []string{
		"# WatchDog Security & Performance Report",
		"**Total Logs Analyzed:** 42",
		"**1 HIGH severity** issue(s)",
		"## Brute Force",
		"### 1. Repeated SSH failures from 10.0.0.9",
		"**Affected Systems:** web-01",
		"## Performance",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdownNoFindings(t *testing.T) {
	md := renderMarkdown(model.Report{TotalLogs: 5})
	if !strings.Contains(md, "No significant issues found.") {
		t.Errorf("markdown = %q", md)
	}
}

func TestRenderIngestText(t *testing.T) {
	res := pipeline.IngestResult{
		SourceFile: "auth.log",
		TotalLogs:  3,
		Findings: []model.Finding{{
			Issue:          "Brute force attempt",
			Category:       model.CategoryBruteForce,
			Severity:       model.SeverityHigh,
			Confidence:     0.85,
			Timeline:       "Jan 15",
			Recommendation: "Block the IP.",
		}},
	}
	res.Indexed.Inserted = 3

	out := renderIngestText(res)
	for _, want := range []string{
		"Analysis results for auth.log",
		"Logs parsed:  3",
		"[1] Brute force attempt",
		"Severity:       HIGH",
		"Confidence:     85%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestCategoryTitle(t *testing.T) {
	cases := map[model.Category]string{
		model.CategoryBruteForce:       "Brute Force",
		model.CategoryWebExploit:       "Web Exploit",
		model.CategoryOther:            "Other",
		model.CategoryApplicationError: "Application Error",
	}
	for in, want := range cases {
		if got := categoryTitle(in); got != want {
			t.Errorf("categoryTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
