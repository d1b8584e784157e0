package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aholston/watchdogai/internal/tail"
)

var (
	watchFromStart   bool
	watchInterval    time.Duration
	watchBatch       int
	watchInputFormat string
)

var watchCmd = &cobra.Command{
	Use:   "watch <file> [file...]",
	Short: "Follow log files and analyze new lines continuously",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := []tail.Option{
			tail.WithFlushInterval(watchInterval),
			tail.WithBatchLines(watchBatch),
		}
		if watchFromStart {
			opts = append(opts, tail.FromStart())
		}
		follower, err := tail.New(args, opts...)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %d file(s); press Ctrl-C to stop.\n", len(args))
		err = follower.Run(ctx, func(ctx context.Context, b tail.Batch) error {
			content := []byte(strings.Join(b.Lines, "\n") + "\n")
			res, err := a.pipe.Ingest(ctx, content, filepath.Base(b.SourceFile), watchInputFormat)
			if err != nil {
				return err
			}
			for _, f := range res.Findings {
				fmt.Printf("[%s] %s: %s\n", strings.ToUpper(string(f.Severity)), f.Category, f.Issue)
			}
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchFromStart, "from-start", false, "analyze existing file content before following")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "how often buffered lines are analyzed")
	watchCmd.Flags().IntVar(&watchBatch, "batch", 200, "analyze early once this many lines are buffered")
	watchCmd.Flags().StringVar(&watchInputFormat, "input-format", "", "log format hint: plain, jsonl, csv (default: by extension)")
	rootCmd.AddCommand(watchCmd)
}
