package model

import "strings"

// Category is the fixed incident taxonomy findings are classified into.
type Category string

const (
	CategoryBruteForce       Category = "brute_force"
	CategoryWebExploit       Category = "web_exploit"
	CategoryMalware          Category = "malware"
	CategoryNetwork          Category = "network"
	CategoryDataBreach       Category = "data_breach"
	CategoryPerformance      Category = "performance"
	CategoryApplicationError Category = "application_error"
	CategoryInfrastructure   Category = "infrastructure"
	CategoryOther            Category = "other"
)

// Categories lists every category in presentation order.
func Categories() []Category {
	return []Category{
		CategoryBruteForce,
		CategoryWebExploit,
		CategoryMalware,
		CategoryNetwork,
		CategoryDataBreach,
		CategoryPerformance,
		CategoryApplicationError,
		CategoryInfrastructure,
		CategoryOther,
	}
}

// ParseCategory normalizes a category string case-insensitively.
// Unknown strings map to CategoryOther — never dropped.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryBruteForce, CategoryWebExploit, CategoryMalware,
		CategoryNetwork, CategoryDataBreach, CategoryPerformance,
		CategoryApplicationError, CategoryInfrastructure, CategoryOther:
		return Category(strings.ToLower(strings.TrimSpace(s)))
	default:
		return CategoryOther
	}
}

// Severity ranks how urgent a finding is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank returns an integer rank for comparison (low=1, high=3).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity normalizes a severity string case-insensitively. "critical"
// maps to high; anything else unrecognized maps to the conservative medium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical":
		return SeverityHigh
	case "low":
		return SeverityLow
	case "medium", "moderate":
		return SeverityMedium
	default:
		return SeverityMedium
	}
}
