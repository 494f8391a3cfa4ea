// Package cmd implements the command-line interface for sellerscout.
package cmd

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sellerscout/cmd/balance"
	"sellerscout/cmd/collect"
	"sellerscout/cmd/jobs"
	"sellerscout/cmd/proxies"
)

var rootCmd = &cobra.Command{
	Use:   "sellerscout",
	Short: "Marketplace seller collection and enrichment",
	Long: `sellerscout collects marketplace sellers by category and region and
enriches them with registry data and contact information.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to config
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(collect.Command())
	rootCmd.AddCommand(jobs.Command())
	rootCmd.AddCommand(proxies.Command())
	rootCmd.AddCommand(balance.Command())
}
