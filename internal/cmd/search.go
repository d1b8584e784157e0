package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed logs by meaning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		matches, err := a.pipe.Search(cmd.Context(), args[0], searchLimit)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No matching logs found.")
			return nil
		}

		fmt.Printf("Found %d matching log(s):\n", len(matches))
		for i, m := range matches {
			fmt.Printf("\n[%d] %.1f%% match\n", i+1, m.Similarity*100)
			fmt.Printf("    %s\n", m.Record.RawText)
			if m.Record.HasTimestamp() {
				fmt.Printf("    source: %s  time: %s\n", m.Record.SourceFile, m.Record.Timestamp.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Printf("    source: %s\n", m.Record.SourceFile)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "maximum results")
	rootCmd.AddCommand(searchCmd)
}
