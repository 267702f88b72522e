/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/gse2/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a config file with default settings to the path given by --config,
or to the OS-specific default location.

An existing file is kept unless --force is given. With --api-key a random
server API key is generated and stored in the file.

Examples:
  gse2 init
  gse2 init --config ./gse2.yaml --catalog-dir /var/lib/gse2 --api-key`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfigFile: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		catalogDir, _ := cmd.Flags().GetString("catalog-dir")
		withKey, _ := cmd.Flags().GetBool("api-key")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		out := cmd.OutOrStdout()
		if config.ConfigExists(configPath) && !force {
			fmt.Fprintf(out, "Config already exists at %s. Use --force to overwrite.\n", configPath)
			return nil
		}

		cfg, err := config.BootstrapConfig(configPath, catalogDir, withKey)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Config written to %s\n", configPath)
		fmt.Fprintf(out, "Catalog directory: %s\n", cfg.Catalog.Dir)
		if cfg.Server.APIKey != "" {
			fmt.Fprintf(out, "API key: %s\n", cfg.Server.APIKey)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("catalog-dir", "", "Catalog directory to store in the config")
	initCmd.Flags().Bool("api-key", false, "Generate a server API key")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}
