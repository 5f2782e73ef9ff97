// Package sources implements the sources command group for inspecting the
// configured crawl targets.
package sources

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/partywatch/partycrawl/cmd/common"
)

// Command returns the sources command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage the configured announcement sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(listCommand())
	return cmd
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured sources in a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")

			deps, err := common.NewCommandDeps(configPath, debug)
			if err != nil {
				return err
			}
			targets, err := deps.LoadTargets()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Party", "Site", "Category", "List URL"})
			for _, target := range targets {
				t.AppendRow(table.Row{
					target.ID, target.Party, target.Site, target.Category, target.ListURL,
				})
			}
			t.Render()
			return nil
		},
	}
}
