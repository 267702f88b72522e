/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/gse2/pkg/catalog"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <file>...",
	Short: "Add container headers to the catalog",
	Long: `Read the headers of each container and store them in the header catalog.

Files are recorded under their absolute path. A file that fails to decode adds
nothing and stops the command.

Example:
  gse2 index --catalog-dir ./catalog 2024/*.gse`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd)

		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close()

		total := 0
		for _, path := range args {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			ids, err := cat.IndexFile(abs, cfg.ReadOptions())
			if err != nil {
				return fmt.Errorf("index %s: %w", path, err)
			}
			total += len(ids)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", path, len(ids))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d records from %d files\n", total, len(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().String("catalog-dir", "", "Catalog directory (default: catalog.dir from config)")
}

// openCatalog opens the catalog named by --catalog-dir or the config file
func openCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	if err := requireContainer(); err != nil {
		return nil, err
	}

	dir, _ := cmd.Flags().GetString("catalog-dir")
	if dir == "" {
		dir = configFrom(cmd).Catalog.Dir
	}
	return container.OpenCatalog(dir)
}
