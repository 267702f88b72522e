/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/gse2/pkg/catalog"
)

// catalogCmd groups the header catalog commands
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the header catalog",
	Long: `List, show and delete header catalog entries. Use 'gse2 index' to add
entries.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		asJSON, _ := cmd.Flags().GetBool("json")

		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close()

		var entries []*catalog.Entry
		if source != "" {
			entries, err = cat.ListSource(source)
		} else {
			entries, err = cat.List()
		}
		if err != nil {
			return err
		}

		if asJSON {
			if entries == nil {
				entries = []*catalog.Entry{}
			}
			return outputJSON(cmd.OutOrStdout(), entries)
		}
		return outputEntriesTable(cmd.OutOrStdout(), entries)
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[0], err)
		}

		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close()

		e, err := cat.Get(id)
		if err != nil {
			return err
		}

		if asJSON {
			return outputJSON(cmd.OutOrStdout(), e)
		}
		return outputEntryTable(cmd.OutOrStdout(), e)
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[0], err)
		}

		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close()

		if err := cat.Delete(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogShowCmd, catalogDeleteCmd)

	catalogCmd.PersistentFlags().String("catalog-dir", "", "Catalog directory (default: catalog.dir from config)")
	catalogListCmd.Flags().String("source", "", "Only list entries from this source")
	catalogListCmd.Flags().Bool("json", false, "Print JSON instead of a table")
	catalogShowCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}
