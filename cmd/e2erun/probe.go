package main

import (
	"context"
	"fmt"

	"github.com/hairizuan-noorazman/e2erun/hub"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the descriptor's remote endpoint is ready",
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
		if d.RemoteEndpoint() == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "no remote endpoint configured; the runner manages its own driver")
			return nil
		}

		status, err := hub.NewClient(cfg.Hub.ProbeTimeout, log).Status(ctx, d.RemoteEndpoint())
		if err != nil {
			return fmt.Errorf("%s: %w", hub.StatusURL(d.RemoteEndpoint()), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: ready", d.RemoteEndpoint())
		if status.Message != "" {
			fmt.Fprintf(cmd.OutOrStdout(), " (%s)", status.Message)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
