// Package cmd implements the command-line interface for partycrawl.
package cmd

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/partywatch/partycrawl/cmd/crawl"
	cmdscheduler "github.com/partywatch/partycrawl/cmd/scheduler"
	cmdsources "github.com/partywatch/partycrawl/cmd/sources"
)

var rootCmd = &cobra.Command{
	Use:   "partycrawl",
	Short: "Crawl Korean party announcement boards into a Notion database",
	Long: `partycrawl lists the announcement boards of the configured political
parties, deduplicates posts against the Notion database and writes new
announcements with their full body text.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so NOTION_TOKEN and friends are visible to viper.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (optional)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(cmdsources.Command())
	rootCmd.AddCommand(cmdscheduler.Command())
}
