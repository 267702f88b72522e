/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/gse2/pkg/codec"
	"github.com/ssargent/gse2/pkg/gse2"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Re-encode a container",
	Long: `Read every record of a container and write it to a new file.

The payload data type and line width default to the write section of the
config file. An output path ending in .gz is gzip compressed. If a record
cannot be written, the records before it stay in the output file.

Examples:
  gse2 convert raw.gse compact.gse --datatype CM6
  gse2 convert event.gse event.int.gse.gz --datatype INT --line-width 72`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd)
		noVerify, _ := cmd.Flags().GetBool("no-verify")

		ropts := cfg.ReadOptions()
		ropts.VerifyChecksum = ropts.VerifyChecksum && !noVerify

		wopts := cfg.WriteOptions()
		if cmd.Flags().Changed("datatype") {
			dt, _ := cmd.Flags().GetString("datatype")
			dt = strings.ToUpper(dt)
			if dt != codec.DataTypeCM6 && dt != codec.DataTypeINT {
				return fmt.Errorf("unsupported datatype %q (want CM6 or INT)", dt)
			}
			wopts.Encode.DataType = dt
		}
		if cmd.Flags().Changed("line-width") {
			wopts.Encode.LineWidth, _ = cmd.Flags().GetInt("line-width")
		}

		stream, err := gse2.ReadFile(args[0], ropts)
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		if stream.Truncated {
			cmd.PrintErrf("warning: scan limit reached, only %d records converted\n", stream.Len())
		}

		if err := gse2.WriteFile(stream, args[1], wopts); err != nil {
			return fmt.Errorf("write %s: %w", args[1], err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "converted %d records from %s to %s\n", stream.Len(), args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().String("datatype", "", "Payload data type (CM6 or INT)")
	convertCmd.Flags().Int("line-width", 0, "Maximum payload line width")
	convertCmd.Flags().Bool("no-verify", false, "Skip CHK2 checksum verification on read")
}
