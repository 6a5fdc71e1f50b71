package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/storage"
	"github.com/spf13/cobra"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands.
func NewCorsCmd(open StoreOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update CORS allowed origins. Without a stored config the server allows FRONTEND_URL.",
	}
	cmd.AddCommand(newCorsListCmd(open))
	cmd.AddCommand(newCorsSetCmd(open))
	return cmd
}

func newCorsListCmd(open StoreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd, open, func(ctx context.Context, s *storage.Stores) error {
				return printCors(cmd, ctx, s.Cors)
			})
		},
	}
}

func printCors(cmd *cobra.Command, ctx context.Context, repo database.CorsConfigStore) error {
	out := cmd.OutOrStdout()
	c, err := repo.GetCorsConfig(ctx)
	if err != nil {
		return fmt.Errorf("get cors config: %w", err)
	}
	if c == nil {
		fmt.Fprintln(out, "No CORS configuration stored. The server allows FRONTEND_URL.")
		return nil
	}
	fmt.Fprintln(out, "CORS configuration:")
	fmt.Fprintf(out, "  Allowed origins: %s\n", strings.Join(database.AllowedOriginsSlice(c.AllowedOrigins), ", "))
	fmt.Fprintf(out, "  Allow credentials: %v\n", c.AllowCredentials)
	fmt.Fprintf(out, "  Max-Age: %d\n", c.MaxAge)
	return nil
}

func newCorsSetCmd(open StoreOpener) *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Update CORS allowed origins (comma-separated).",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := database.AllowedOriginsSlice(origins)
			if len(list) == 0 {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			if maxAge < 0 {
				return fmt.Errorf("--max-age must not be negative")
			}
			return withStores(cmd, open, func(ctx context.Context, s *storage.Stores) error {
				c := &models.CorsConfig{
					AllowedOrigins:   strings.Join(list, ","),
					AllowCredentials: allowCreds,
					MaxAge:           maxAge,
				}
				if err := s.Cors.SetCorsConfig(ctx, c); err != nil {
					return fmt.Errorf("set cors config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}
