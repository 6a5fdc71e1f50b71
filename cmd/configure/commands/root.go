// Package commands implements the napoleon-configure CLI: operator settings
// that the server hot-reloads from the store, and read-only reports.
package commands

import (
	"context"
	"fmt"

	"github.com/benvon/napoleon/internal/config"
	"github.com/benvon/napoleon/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// StoreOpener connects to the store the commands operate on
type StoreOpener func(ctx context.Context) (*storage.Stores, error)

// OpenConfiguredStore opens the store named by the environment. The memory
// driver is rejected because settings written to it would vanish on exit.
func OpenConfiguredStore(ctx context.Context) (*storage.Stores, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreDriver == config.StoreDriverMemory {
		return nil, fmt.Errorf("STORE_DRIVER=memory has nothing to configure; use postgres or firestore")
	}
	return storage.Open(ctx, cfg, false, zap.NewNop())
}

// NewRootCmd builds the CLI over open
func NewRootCmd(open StoreOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "napoleon-configure",
		Short:         "Configuration tool for the napoleon planner API",
		Long:          "Manage hot-reloaded server settings (rate limit, CORS), inspect stored data and clean up failed jobs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewRatelimitCmd(open))
	root.AddCommand(NewCorsCmd(open))
	root.AddCommand(NewTrackerCmd(open))
	root.AddCommand(NewListCmd(open))
	root.AddCommand(NewCheckCmd())
	root.AddCommand(NewDLQCmd(OpenConfiguredDLQ))
	return root
}

// withStores opens the store for the duration of fn
func withStores(cmd *cobra.Command, open StoreOpener, fn func(ctx context.Context, s *storage.Stores) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stores, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close() }()
	return fn(ctx, stores)
}
