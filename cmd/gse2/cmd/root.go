/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/gse2/pkg/config"
	"github.com/ssargent/gse2/pkg/di"
	"github.com/ssargent/gse2/pkg/logger"
)

type contextKey string

const configKey contextKey = "config"

// skipConfigFile marks commands that run before a config file exists
const skipConfigFile = "skip-config-file"

var container *di.Container

// SetContainer injects the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gse2",
	Short: "GSE2 waveform container toolkit",
	Long: `gse2 reads, writes and catalogs GSE2.0 waveform containers.

A container holds WID2 records, each with a fixed-column header, a CM6 or INT
sample payload and a CHK2 checksum. Commands read settings from a YAML config
file (see 'gse2 init'); flags override the file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger.SetupWithWriter(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

		cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console or json)")
}

// loadConfig reads the config named by --config, or the default config
// file when it exists, and applies the logging flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	switch {
	case cmd.Annotations[skipConfigFile] == "true":
		cfg = config.DefaultConfig()
	case configPath != "":
		cfg, err = config.LoadConfig(configPath)
	case config.ConfigExists(config.GetDefaultConfigPath()):
		cfg, err = config.LoadConfig(config.GetDefaultConfigPath())
	default:
		cfg = config.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Logging.Format = format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configFrom returns the config loaded by the root command
func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

func requireContainer() error {
	if container == nil {
		return errors.New("dependency container not initialized")
	}
	return nil
}
