package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askContext string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the indexed logs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		question := strings.Join(args, " ")
		finding, err := a.pipe.AnalyzeQuery(cmd.Context(), question, askContext)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", finding.Issue)
		var b strings.Builder
		writeFindingDetails(&b, finding)
		fmt.Print(b.String())
		if len(finding.EvidenceIDs) > 0 {
			fmt.Printf("    Evidence:       %d log record(s)\n", len(finding.EvidenceIDs))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askContext, "context", "", "analysis context (default: general)")
	rootCmd.AddCommand(askCmd)
}
