package extractor

import (
	"fmt"
	"strings"

	"github.com/aholston/watchdogai/internal/model"
)

// Each inference call is single-shot and stateless, so the prompt carries
// everything an analyst would need: the record texts with their IDs, the
// fixed category taxonomy, and the exact response shape.

const batchPromptHeader = `You are an expert DevOps and security analyst. Analyze the following log records and report every security or operational incident you can identify.

LOG RECORDS (each prefixed with its record id):
`

const batchPromptFooter = `
Your task:
1. Identify patterns, anomalies, or security/operational issues across the records.
2. Assess severity and potential impact of each.
3. Provide specific, actionable recommendations.

Respond with ONLY a JSON array (no prose, no markdown) where each element has this exact shape:
[
  {
    "category": "%s",
    "severity": "high|medium|low",
    "confidence": 0.0,
    "issue": "one-line headline of the incident",
    "timeline": "human-readable time range, or \"unknown\"",
    "affected_systems": ["hosts or services involved"],
    "recommendation": "specific, actionable steps",
    "evidence_record_ids": ["record ids from the input that support this"]
  }
]

Report distinct incidents as separate array elements. Return [] if the records show nothing significant.`

const queryPromptTemplate = `You are an expert DevOps and security analyst. A user asked the following question about their infrastructure logs.

CONTEXT: %s

QUESTION: %s

MOST RELEVANT LOG RECORDS (each prefixed with its record id and retrieval similarity):
%s
Respond with ONLY a single JSON object (no prose, no markdown) in this exact shape:
{
  "category": "%s",
  "severity": "high|medium|low",
  "confidence": 0.0,
  "issue": "one-line answer headline",
  "timeline": "human-readable time range, or \"unknown\"",
  "affected_systems": ["hosts or services involved"],
  "recommendation": "specific, actionable steps",
  "evidence_record_ids": ["record ids from the input that support this"]
}

If the records show nothing significant, say so in the issue field with low severity.`

func categoryChoices() string {
	cats := model.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, "|")
}

func buildBatchPrompt(records []model.LogRecord, maxRecordChars int) string {
	var b strings.Builder
	b.WriteString(batchPromptHeader)
	for _, r := range records {
		writeRecordLine(&b, r, maxRecordChars)
	}
	fmt.Fprintf(&b, batchPromptFooter, categoryChoices())
	return b.String()
}

func buildQueryPrompt(question, context string, matches []ScoredRecord, maxRecordChars int) string {
	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "[%s] (similarity %.3f)", m.Record.ID, m.Similarity)
		if m.Record.HasTimestamp() {
			fmt.Fprintf(&b, " %s", m.Record.Timestamp.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(&b, " %s\n", truncate(m.Record.RawText, maxRecordChars))
	}
	return fmt.Sprintf(queryPromptTemplate, context, question, b.String(), categoryChoices())
}

func writeRecordLine(b *strings.Builder, r model.LogRecord, maxRecordChars int) {
	fmt.Fprintf(b, "[%s]", r.ID)
	if r.HasTimestamp() {
		fmt.Fprintf(b, " %s", r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(b, " %s\n", truncate(r.RawText, maxRecordChars))
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
