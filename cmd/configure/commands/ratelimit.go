package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
)

// NewRatelimitCmd manages the stored request rate limit.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update the request rate limit stored in the database.",
	}
	cmd.AddCommand(newRatelimitListCmd(), newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the stored rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *database.DB) error {
				stored, err := database.NewRatelimitConfigRepository(db).Get(context.Background())
				if err != nil {
					return fmt.Errorf("get ratelimit config: %w", err)
				}
				if stored == nil {
					cmd.Println("No rate limit stored. Use 'ratelimit set' to add one.")
					return nil
				}
				cmd.Printf("Rate limit: %s\n", stored.Rate)
				return nil
			})
		},
	}
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the stored rate limit",
		Long:  "Update the rate limit in limiter notation, e.g. 5-S, 100-M, 1000-H.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" {
				return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
			}
			return withDB(func(db *database.DB) error {
				err := database.NewRatelimitConfigRepository(db).Set(context.Background(), &models.RatelimitConfig{Rate: rate})
				if err != nil {
					return fmt.Errorf("set ratelimit config: %w", err)
				}
				cmd.Println("Rate limit updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate in limiter notation (required)")
	return cmd
}
