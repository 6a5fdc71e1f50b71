package commands

import (
	"context"
	"fmt"

	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/storage"
	"github.com/spf13/cobra"
)

// NewRatelimitCmd creates the ratelimit configuration command with list and set subcommands.
func NewRatelimitCmd(open StoreOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update the API rate limit (e.g. 10-S, 100-M). The server picks changes up within a minute.",
	}
	cmd.AddCommand(newRatelimitListCmd(open))
	cmd.AddCommand(newRatelimitSetCmd(open))
	return cmd
}

func newRatelimitListCmd(open StoreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current rate limit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd, open, func(ctx context.Context, s *storage.Stores) error {
				return printRatelimit(cmd, ctx, s.Ratelimit)
			})
		},
	}
}

func printRatelimit(cmd *cobra.Command, ctx context.Context, repo database.RatelimitConfigStore) error {
	out := cmd.OutOrStdout()
	c, err := repo.GetRatelimitConfig(ctx)
	if err != nil {
		return fmt.Errorf("get ratelimit config: %w", err)
	}
	if c == nil {
		fmt.Fprintln(out, "No rate limit configuration stored. The server default applies.")
		return nil
	}
	fmt.Fprintln(out, "Rate limit configuration:")
	fmt.Fprintf(out, "  Rate: %s\n", c.Rate)
	return nil
}

func newRatelimitSetCmd(open StoreOpener) *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set rate limit configuration",
		Long:  "Update the rate limit (e.g. 10-S, 100-M, 1000-H).",
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := database.NormalizeRate(rate)
			if err != nil {
				return err
			}
			return withStores(cmd, open, func(ctx context.Context, s *storage.Stores) error {
				if err := s.Ratelimit.SetRatelimitConfig(ctx, &models.RatelimitConfig{Rate: normalized}); err != nil {
					return fmt.Errorf("set ratelimit config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rate limit set to %s.\n", normalized)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 10-S, 100-M, 1000-H) (required)")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}
