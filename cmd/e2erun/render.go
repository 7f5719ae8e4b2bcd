package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hairizuan-noorazman/e2erun/runner"
	"github.com/spf13/cobra"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the runner config file for the descriptor",
	Long: `Render the descriptor into the external runner's config file. Spec paths are
resolved against the descriptor's directory. Writes to stdout unless -o is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log := newLogger(cfg)
		ctx := context.Background()

		d, err := loadDescriptor(ctx, log)
		if err != nil {
			return err
		}

		baseDir, err := filepath.Abs(filepath.Dir(descriptorFile))
		if err != nil {
			return fmt.Errorf("failed to resolve descriptor directory: %w", err)
		}

		var rendered bytes.Buffer
		if err := runner.RenderProtractor(&rendered, d, runner.RenderOptions{BaseDir: baseDir}); err != nil {
			return fmt.Errorf("failed to render runner config: %w", err)
		}

		if renderOutput == "" || renderOutput == "-" {
			_, err := cmd.OutOrStdout().Write(rendered.Bytes())
			return err
		}

		if err := os.WriteFile(renderOutput, rendered.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info(ctx, "runner config written", map[string]interface{}{
			"path": renderOutput,
		})
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(renderCmd)
}
