package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/napoleon/internal/config"
	"github.com/benvon/napoleon/internal/queue"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DLQOpener connects to the dead letter queue; the returned func closes it
type DLQOpener func(ctx context.Context) (queue.DLQPurger, func() error, error)

// OpenConfiguredDLQ dials the RabbitMQ broker named by RABBITMQ_URL
func OpenConfiguredDLQ(_ context.Context) (queue.DLQPurger, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.RabbitMQURL == "" {
		return nil, nil, fmt.Errorf("RABBITMQ_URL is not set; the in-memory queue has no dead letter queue")
	}
	q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zap.NewNop())
	if err != nil {
		return nil, nil, err
	}
	return q, q.Close, nil
}

// NewDLQCmd manages dead-lettered reschedule jobs
func NewDLQCmd(open DLQOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Manage failed reschedule jobs",
	}

	var olderThan time.Duration
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop dead-lettered jobs older than --older-than",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			purger, closeFn, err := open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			n, err := queue.NewGarbageCollector(purger, 0, olderThan, nil).RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d job(s) older than %s\n", n, olderThan)
			return nil
		},
	}
	purgeCmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Retention; younger jobs are kept")

	cmd.AddCommand(purgeCmd)
	return cmd
}
