// Package main provides the tfmeta CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var rootCmd = &cobra.Command{
	Use:          "tfmeta",
	Short:        "Attach descriptive metadata to TFLite model binaries",
	Long:         "tfmeta assembles tensor descriptions, label files and score calibration\nparameters and attaches them to a TFLite model binary, producing an augmented\nmodel plus a human-readable JSON view of its metadata.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newAnnotateCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tfmeta %s\n", version)
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
