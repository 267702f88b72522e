/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/gse2/pkg/gse2"
)

// headersCmd represents the headers command
var headersCmd = &cobra.Command{
	Use:   "headers <file>",
	Short: "Print the record headers of a container",
	Long: `Print one line per WID2 record of a container.

Only headers are decoded unless --verify is given, in which case every payload
is decoded and its CHK2 checksum checked before anything is printed.

Examples:
  gse2 headers event.gse
  gse2 headers --verify --json event.gse.gz`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verify, _ := cmd.Flags().GetBool("verify")
		asJSON, _ := cmd.Flags().GetBool("json")

		opts := configFrom(cmd).ReadOptions()
		opts.HeadersOnly = !verify
		opts.VerifyChecksum = verify

		stream, err := gse2.ReadFile(args[0], opts)
		if err != nil {
			return err
		}
		if stream.Truncated {
			cmd.PrintErrf("warning: scan limit reached, %d records listed\n", stream.Len())
		}

		for _, tr := range stream.Traces {
			tr.Samples = nil
		}

		if asJSON {
			return outputJSON(cmd.OutOrStdout(), stream)
		}
		return outputTracesTable(cmd.OutOrStdout(), stream.Traces)
	},
}

func init() {
	rootCmd.AddCommand(headersCmd)
	headersCmd.Flags().Bool("verify", false, "Decode payloads and verify checksums")
	headersCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}
