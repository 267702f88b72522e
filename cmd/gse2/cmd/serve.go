/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/gse2/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the GSE2 REST API server.

The server decodes, converts and catalogs containers posted to /api/v1 and
exposes Prometheus metrics at /metrics. When an API key is configured every
/api/v1 request must carry it in the X-API-Key header.

Examples:
  gse2 serve
  gse2 serve --bind 0.0.0.0 --port 9000 --api-key mysecretkey`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd)

		if cmd.Flags().Changed("bind") {
			cfg.Server.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.Server.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Starting GSE2 API server on %s\n", cfg.Addr())
		fmt.Fprintf(cmd.OutOrStdout(), "Metrics available at: http://%s/metrics\n", cfg.Addr())

		starter := container.GetServerFactory().CreateServerStarter()
		return starter.StartServer(ctx, cat, api.ServerConfig{
			Bind:   cfg.Server.Bind,
			Port:   cfg.Server.Port,
			APIKey: cfg.Server.APIKey,
			Read:   cfg.ReadOptions(),
			Write:  cfg.WriteOptions(),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().IntP("port", "p", 8090, "Port to listen on")
	serveCmd.Flags().String("api-key", "", "API key required in X-API-Key (empty disables authentication)")
	serveCmd.Flags().String("catalog-dir", "", "Catalog directory (default: catalog.dir from config)")
}
