package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.pipe.Status()
		fmt.Println("WatchDog status:")
		fmt.Printf("  LLM Provider:   %s\n", st.LLMProvider)
		fmt.Printf("  LLM Model:      %s\n", st.LLMModel)
		fmt.Printf("  Embed Provider: %s\n", st.EmbedProvider)
		fmt.Printf("  Vector Store:   %s (%s)\n", st.StoreKind, a.cfg.Store.VectorPath())
		fmt.Printf("  Total Logs:     %d\n", st.TotalLogs)
		fmt.Printf("  Total Findings: %d\n", st.TotalFindings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
