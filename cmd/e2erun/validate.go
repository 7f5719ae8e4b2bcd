package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the descriptor is well formed",
	Long: `Load the descriptor and report whether it is well formed. Exits non-zero
with the offending field when it is not.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log := newLogger(cfg)

		d, err := loadDescriptor(context.Background(), log)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: ok (%s, %d spec paths)\n", descriptorFile, d.FrameworkName(), len(d.SpecPaths()))
		if names := d.CapabilityNames(); len(names) > 0 {
			fmt.Fprintf(out, "capabilities: %s\n", strings.Join(names, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
