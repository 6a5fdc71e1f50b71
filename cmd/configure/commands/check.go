package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/napoleon/internal/bootstrap"
	"github.com/benvon/napoleon/internal/config"
	"github.com/benvon/napoleon/internal/queue"
	"github.com/benvon/napoleon/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCheckCmd verifies that the configured dependencies are reachable
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check connectivity to the store, Redis and RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			out := cmd.OutOrStdout()

			failed := 0
			report := func(name string, err error) {
				if err != nil {
					failed++
					fmt.Fprintf(out, "  %-8s FAIL %v\n", name, err)
					return
				}
				fmt.Fprintf(out, "  %-8s ok\n", name)
			}

			fmt.Fprintf(out, "Checking dependencies (store driver %s):\n", cfg.StoreDriver)
			stores, err := storage.Open(ctx, cfg, false, zap.NewNop())
			if err == nil {
				err = stores.Ping(ctx)
				_ = stores.Close()
			}
			report("store", err)

			if cfg.RedisURL != "" {
				client, err := bootstrap.OpenRedis(ctx, cfg.RedisURL)
				if client != nil {
					_ = client.Close()
				}
				report("redis", err)
			}

			if cfg.RabbitMQURL != "" {
				q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zap.NewNop())
				if err == nil {
					err = q.HealthCheck(ctx)
					_ = q.Close()
				}
				report("rabbitmq", err)
			}

			if failed > 0 {
				return fmt.Errorf("%d dependency check(s) failed", failed)
			}
			return nil
		},
	}
}
