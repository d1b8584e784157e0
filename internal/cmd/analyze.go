package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aholston/watchdogai/internal/model"
	"github.com/aholston/watchdogai/internal/pipeline"
)

var (
	analyzeOutputFmt   string
	analyzeOutputFile  string
	analyzeInputFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a log file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		path := args[0]
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		res, err := a.pipe.Ingest(cmd.Context(), content, filepath.Base(path), analyzeInputFormat)
		if err != nil {
			return err
		}

		var out string
		if analyzeOutputFmt == "json" {
			b, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			out = string(b) + "\n"
		} else {
			out = renderIngestText(res)
		}

		if analyzeOutputFile != "" {
			if err := os.WriteFile(analyzeOutputFile, []byte(out), 0o644); err != nil {
				return err
			}
			fmt.Printf("Results saved to %s\n", analyzeOutputFile)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOutputFmt, "format", "text", "output format: text, json")
	analyzeCmd.Flags().StringVarP(&analyzeOutputFile, "output", "o", "", "save results to file")
	analyzeCmd.Flags().StringVar(&analyzeInputFormat, "input-format", "", "log format hint: plain, jsonl, csv (default: by extension)")
	rootCmd.AddCommand(analyzeCmd)
}

func renderIngestText(res pipeline.IngestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis results for %s\n", res.SourceFile)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(&b, "Logs parsed:  %d\n", res.TotalLogs)
	fmt.Fprintf(&b, "Indexed:      %d inserted, %d updated", res.Indexed.Inserted, res.Indexed.Updated)
	if n := len(res.Indexed.Failed); n > 0 {
		fmt.Fprintf(&b, ", %d failed", n)
	}
	b.WriteString("\n")

	if len(res.Findings) == 0 {
		b.WriteString("\nNo significant issues found.\n")
		return b.String()
	}

	for i, f := range res.Findings {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, f.Issue)
		writeFindingDetails(&b, f)
	}
	return b.String()
}

func writeFindingDetails(b *strings.Builder, f model.Finding) {
	fmt.Fprintf(b, "    Category:       %s\n", f.Category)
	fmt.Fprintf(b, "    Severity:       %s\n", strings.ToUpper(string(f.Severity)))
	fmt.Fprintf(b, "    Confidence:     %.0f%%\n", f.Confidence*100)
	fmt.Fprintf(b, "    Timeline:       %s\n", f.Timeline)
	fmt.Fprintf(b, "    Recommendation: %s\n", f.Recommendation)
	if len(f.AffectedSystems) > 0 {
		fmt.Fprintf(b, "    Affected:       %s\n", strings.Join(f.AffectedSystems, ", "))
	}
}
