package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quietgrove/intently/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "intently-configure",
		Short: "Configuration tool for the Intently API",
		Long:  "CLI tool for managing stored CORS and rate limit settings and testing reminder schedules",
	}

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
