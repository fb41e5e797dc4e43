package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lite-ml/tfmeta/metadata"
)

func newAnnotateCmd() *cobra.Command {
	var (
		modelPath    string
		manifestPath string
		outputPath   string
		jsonPath     string
	)

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Apply a metadata manifest to a model binary",
		Long:  "Reads a YAML manifest describing the model's tensors, labels and score\ncalibration, attaches the assembled metadata to the model binary and writes\nthe augmented model. The original model file is never modified.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			modelBuf, err := os.ReadFile(modelPath)
			if err != nil {
				return fmt.Errorf("read model: %w", err)
			}

			m, err := loadManifest(manifestPath)
			if err != nil {
				return err
			}

			w, err := metadata.NewWriter(modelBuf)
			if err != nil {
				return err
			}
			defer func() {
				_ = w.Close()
			}()

			if err := m.apply(w); err != nil {
				return err
			}

			augmented, jsonView, err := w.Populate()
			if err != nil {
				return err
			}

			if err := os.WriteFile(outputPath, augmented, 0o644); err != nil {
				return fmt.Errorf("write augmented model: %w", err)
			}
			if jsonPath != "" {
				if err := os.WriteFile(jsonPath, []byte(jsonView), 0o644); err != nil {
					return fmt.Errorf("write metadata JSON: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", outputPath, len(augmented))
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to the model binary")
	cmd.Flags().StringVarP(&manifestPath, "manifest", "f", "", "path to the YAML metadata manifest")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "path to write the augmented model to")
	cmd.Flags().StringVar(&jsonPath, "json", "", "optional path to write the metadata JSON view to")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("manifest")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
