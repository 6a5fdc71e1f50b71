package commands

import (
	"context"
	"fmt"

	"github.com/benvon/napoleon/internal/storage"
	"github.com/spf13/cobra"
)

// NewListCmd prints every stored operator setting
func NewListCmd(open StoreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd, open, func(ctx context.Context, s *storage.Stores) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Store driver: %s\n\n", s.Driver)
				if err := printRatelimit(cmd, ctx, s.Ratelimit); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return printCors(cmd, ctx, s.Cors)
			})
		},
	}
}
