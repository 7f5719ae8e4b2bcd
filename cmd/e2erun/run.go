package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hairizuan-noorazman/e2erun/hub"
	"github.com/hairizuan-noorazman/e2erun/runner"
	"github.com/hairizuan-noorazman/e2erun/testrun"
	"github.com/spf13/cobra"
)

var runNoProbe bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch the external runner for the descriptor and record the run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		d, err := loadDescriptor(ctx, a.log)
		if err != nil {
			return err
		}

		opts := []runner.Option{runner.WithOutput(cmd.OutOrStdout())}
		if a.blobs != nil {
			opts = append(opts, runner.WithArtifacts(a.artifacts, a.blobs))
		}
		if a.cfg.Hub.Probe && !runNoProbe {
			opts = append(opts, runner.WithProber(hub.NewClient(a.cfg.Hub.ProbeTimeout, a.log)))
		}

		r := runner.New(runner.Config{
			Binary:  a.cfg.Runner.Binary,
			Args:    a.cfg.Runner.Args,
			WorkDir: a.cfg.Runner.WorkDir,
			Env:     a.cfg.Runner.Env,
		}, runner.ProcessExecutor{}, a.runs, a.log, opts...)

		tr, err := r.Run(ctx, descriptorFile, d)
		if tr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %s\n", tr.ID, tr.Status)
		}
		if err != nil {
			return err
		}
		if tr.Status == testrun.StatusFailed {
			return fmt.Errorf("run %s failed: %s", tr.ID, tr.Notes)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNoProbe, "no-probe", false, "skip the remote endpoint readiness probe")
	rootCmd.AddCommand(runCmd)
}
