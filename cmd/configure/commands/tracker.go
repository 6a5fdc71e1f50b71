package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/benvon/napoleon/internal/config"
	"github.com/benvon/napoleon/internal/storage"
	"github.com/benvon/napoleon/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewTrackerCmd groups read-only habit tracker reports
func NewTrackerCmd(open StoreOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Inspect habit tracker data",
	}
	cmd.AddCommand(newTrackerSummaryCmd(open))
	return cmd
}

func newTrackerSummaryCmd(open StoreOpener) *cobra.Command {
	var end, anchor string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the tracker analytics summary",
		Long:  "Compute the streak, weekly average and per-metric rates from the anchor date through --end (default today).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd, open, func(ctx context.Context, s *storage.Stores) error {
				summary, err := tracker.NewService(s.Metrics, anchor, zap.NewNop()).Summary(ctx, end)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(summary)
				}
				fmt.Fprintf(out, "Window: %s onwards (%d days recorded)\n", summary.AnchorDate, summary.Days)
				fmt.Fprintf(out, "Current streak: %d\n", summary.CurrentStreak)
				if summary.WeeklyAverage != nil {
					fmt.Fprintf(out, "Weekly average: %d%%\n", *summary.WeeklyAverage)
				}
				if summary.MostConsistent != "" {
					fmt.Fprintf(out, "Most consistent: %s\n", summary.MostConsistent)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&end, "end", "", "Last date of the window (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&anchor, "anchor", config.DefaultTrackerAnchorDate, "First date of the window (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}
