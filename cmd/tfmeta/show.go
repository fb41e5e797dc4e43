package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lite-ml/tfmeta/metadata"
)

func newShowCmd() *cobra.Command {
	var listFiles bool

	cmd := &cobra.Command{
		Use:   "show <model>",
		Short: "Print the metadata of an annotated model as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelBuf, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read model: %w", err)
			}

			jsonView, err := metadata.MetadataJSON(modelBuf)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jsonView)

			if listFiles {
				files, err := metadata.PackedAssociatedFiles(modelBuf)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(files))
				for name := range files {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "associated file: %s (%d bytes)\n", name, len(files[name]))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&listFiles, "files", false, "also list the associated files packed into the model")
	return cmd
}
