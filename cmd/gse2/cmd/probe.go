/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/gse2/pkg/gse2"
)

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe <file>...",
	Short: "Report whether files are GSE2 containers",
	Long: `Report whether each file starts with a WID2 header line.

Unreadable and missing files are reported as "no".

Example:
  gse2 probe event.gse noise.mseed`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			answer := "no"
			if gse2.Probe(path) {
				answer = "yes"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, answer)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
