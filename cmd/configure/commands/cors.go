package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
)

// NewCorsCmd manages the stored CORS allowlist.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update the CORS allowlist stored in the database.",
	}
	cmd.AddCommand(newCorsListCmd(), newCorsSetCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the stored CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *database.DB) error {
				stored, err := database.NewCorsConfigRepository(db).Get(context.Background())
				if err != nil {
					return fmt.Errorf("get cors config: %w", err)
				}
				if stored == nil {
					cmd.Println("No CORS configuration stored. Use 'cors set' to add one.")
					return nil
				}
				cmd.Println("CORS configuration:")
				cmd.Printf("  Allowed origins: %s\n", stored.AllowedOrigins)
				cmd.Printf("  Allow credentials: %v\n", stored.AllowCredentials)
				cmd.Printf("  Max-Age: %d\n", stored.MaxAge)
				return nil
			})
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var (
		origins    string
		allowCreds bool
		maxAge     int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the stored CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			origins = strings.TrimSpace(origins)
			if origins == "" {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			return withDB(func(db *database.DB) error {
				err := database.NewCorsConfigRepository(db).Set(context.Background(), &models.CorsConfig{
					AllowedOrigins:   origins,
					AllowCredentials: allowCreds,
					MaxAge:           maxAge,
				})
				if err != nil {
					return fmt.Errorf("set cors config: %w", err)
				}
				cmd.Println("CORS configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age in seconds")
	return cmd
}
