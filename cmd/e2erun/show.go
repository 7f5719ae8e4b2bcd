package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the normalized descriptor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		d, err := loadDescriptor(context.Background(), newLogger(cfg))
		if err != nil {
			return err
		}

		if showJSON {
			return printJSON(cmd.OutOrStdout(), d)
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("failed to encode descriptor: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print as JSON instead of YAML")
	rootCmd.AddCommand(showCmd)
}
