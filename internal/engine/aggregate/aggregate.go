// Package aggregate assembles findings into reports: grouped by category,
// ranked worst-severity-first, with summary counts. Pure and deterministic.
package aggregate

import (
	"sort"
	"time"

	"github.com/aholston/watchdogai/internal/model"
)

// Build groups findings by category and produces a Report. Findings keep
// their insertion order within each group; categories are ordered by their
// worst severity, then by finding count descending, then by category name
// for a stable total order.
func Build(findings []model.Finding, totalLogs int, generatedAt time.Time) model.Report {
	report := model.Report{
		GeneratedAt: generatedAt,
		TotalLogs:   totalLogs,
	}

	groups := make(map[model.Category][]model.Finding)
	var order []model.Category
	for _, f := range findings {
		if _, seen := groups[f.Category]; !seen {
			order = append(order, f.Category)
		}
		groups[f.Category] = append(groups[f.Category], f)

		switch f.Severity {
		case model.SeverityHigh:
			report.HighCount++
		case model.SeverityMedium:
			report.MediumCount++
		case model.SeverityLow:
			report.LowCount++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		gi, gj := groups[order[i]], groups[order[j]]
		wi, wj := worstRank(gi), worstRank(gj)
		if wi != wj {
			return wi > wj
		}
		if len(gi) != len(gj) {
			return len(gi) > len(gj)
		}
		return order[i] < order[j]
	})

	for _, cat := range order {
		report.Categories = append(report.Categories, model.CategoryGroup{
			Category: cat,
			Findings: groups[cat],
		})
	}
	return report
}

func worstRank(findings []model.Finding) int {
	worst := 0
	for _, f := range findings {
		if r := f.Severity.Rank(); r > worst {
			worst = r
		}
	}
	return worst
}
