package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aholston/watchdogai/internal/model"
)

var reportOutputFile string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a markdown report across all findings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		rep := a.pipe.Report(cmd.Context())
		if rep.TotalLogs == 0 {
			return fmt.Errorf("no logs available for analysis; run 'watchdog analyze' first")
		}

		md := renderMarkdown(rep)
		if reportOutputFile == "-" {
			fmt.Print(md)
			return nil
		}
		if err := os.WriteFile(reportOutputFile, []byte(md), 0o644); err != nil {
			return err
		}
		fmt.Printf("Report saved to %s (%d findings across %d logs)\n",
			reportOutputFile, rep.TotalFindings(), rep.TotalLogs)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutputFile, "output", "o", "watchdog_report.md", `output file ("-" for stdout)`)
	rootCmd.AddCommand(reportCmd)
}

func renderMarkdown(rep model.Report) string {
	var b strings.Builder
	b.WriteString("# WatchDog Security & Performance Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Total Logs Analyzed:** %d\n\n", rep.TotalLogs)

	b.WriteString("## Executive Summary\n\n")
	if rep.HighCount > 0 {
		fmt.Fprintf(&b, "- **%d HIGH severity** issue(s) requiring immediate attention\n", rep.HighCount)
	}
	if rep.MediumCount > 0 {
		fmt.Fprintf(&b, "- **%d MEDIUM severity** issue(s) requiring review\n", rep.MediumCount)
	}
	if rep.LowCount > 0 {
		fmt.Fprintf(&b, "- %d low severity issue(s)\n", rep.LowCount)
	}
	if rep.TotalFindings() == 0 {
		b.WriteString("No significant issues found.\n")
	}
	b.WriteString("\n")

	for _, group := range rep.Categories {
		fmt.Fprintf(&b, "## %s\n\n", categoryTitle(group.Category))
		for i, f := range group.Findings {
			fmt.Fprintf(&b, "### %d. %s\n\n", i+1, f.Issue)
			fmt.Fprintf(&b, "**Severity:** %s\n", strings.ToUpper(string(f.Severity)))
			fmt.Fprintf(&b, "**Confidence:** %.0f%%\n", f.Confidence*100)
			fmt.Fprintf(&b, "**Timeline:** %s\n\n", f.Timeline)
			fmt.Fprintf(&b, "**Recommendation:**\n%s\n\n", f.Recommendation)
			if len(f.AffectedSystems) > 0 {
				fmt.Fprintf(&b, "**Affected Systems:** %s\n\n", strings.Join(f.AffectedSystems, ", "))
			}
			b.WriteString("---\n\n")
		}
	}
	return b.String()
}

// categoryTitle renders a category slug as a section heading.
func categoryTitle(c model.Category) string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
