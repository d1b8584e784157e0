// Package cmd implements the watchdog CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "watchdog",
	Short: "WatchDog - intelligent log analysis",
	Long: `WatchDog ingests unstructured log files, indexes them for semantic
search, and extracts security and operational findings using an LLM.

Examples:
  watchdog analyze /var/log/auth.log
  watchdog search "failed login" --limit 5
  watchdog ask "is anyone brute forcing ssh?"
  watchdog report -o security_report.md
  watchdog serve
  watchdog watch /var/log/auth.log /var/log/app.log`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./.watchdog.yaml or $HOME/.watchdog.yaml)")
}
