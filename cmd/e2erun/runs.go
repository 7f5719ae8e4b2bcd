package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/e2erun/testrun"
	"github.com/spf13/cobra"
)

var (
	runsLimit  int
	runsOffset int
	runsJSON   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		runs, err := a.runs.List(ctx, runsLimit, runsOffset)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if runsJSON {
			return printJSON(cmd.OutOrStdout(), runs)
		}

		headers := []string{"ID", "STATUS", "FRAMEWORK", "SPECS", "EXIT", "STARTED", "DURATION"}
		rows := make([][]string, 0, len(runs))
		for _, tr := range runs {
			rows = append(rows, []string{
				tr.ID.String(),
				string(tr.Status),
				tr.Framework,
				strconv.Itoa(tr.SpecCount),
				formatExitCode(tr.ExitCode),
				formatTime(tr.StartedAt),
				formatDuration(tr),
			})
		}
		printTable(cmd.OutOrStdout(), headers, rows)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a recorded run and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run ID: must be a valid UUID")
		}

		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		tr, err := a.runs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		artifacts, err := a.artifacts.ListByTestRun(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list artifacts: %w", err)
		}

		if runsJSON {
			return printJSON(cmd.OutOrStdout(), struct {
				*testrun.TestRun
				Artifacts []*testrun.Artifact `json:"artifacts"`
			}{tr, artifacts})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:          %s\n", tr.ID)
		fmt.Fprintf(out, "Status:      %s\n", tr.Status)
		fmt.Fprintf(out, "Framework:   %s\n", tr.Framework)
		fmt.Fprintf(out, "Descriptor:  %s\n", tr.DescriptorPath)
		if tr.RemoteEndpoint != "" {
			fmt.Fprintf(out, "Endpoint:    %s\n", tr.RemoteEndpoint)
		}
		fmt.Fprintf(out, "Specs:       %d\n", tr.SpecCount)
		fmt.Fprintf(out, "Exit code:   %s\n", formatExitCode(tr.ExitCode))
		fmt.Fprintf(out, "Started:     %s\n", formatTime(tr.StartedAt))
		fmt.Fprintf(out, "Duration:    %s\n", formatDuration(tr))
		if tr.Notes != "" {
			fmt.Fprintf(out, "Notes:       %s\n", tr.Notes)
		}

		if len(artifacts) > 0 {
			fmt.Fprintln(out)
			rows := make([][]string, 0, len(artifacts))
			for _, art := range artifacts {
				location := art.Path
				if a.blobs != nil {
					if url, err := a.blobs.GetURL(ctx, art.Path); err == nil {
						location = url
					}
				}
				rows = append(rows, []string{
					art.ID.String(),
					string(art.Kind),
					art.FileName,
					strconv.FormatInt(art.FileSize, 10),
					location,
				})
			}
			printTable(out, []string{"ARTIFACT", "KIND", "FILE", "SIZE", "LOCATION"}, rows)
		}
		return nil
	},
}

func formatExitCode(code *int) string {
	if code == nil {
		return "-"
	}
	return strconv.Itoa(*code)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}

func formatDuration(tr *testrun.TestRun) string {
	if tr.CompletedAt == nil || tr.StartedAt == nil {
		return "-"
	}
	return tr.Duration().Round(time.Millisecond).String()
}

func init() {
	runsCmd.PersistentFlags().BoolVar(&runsJSON, "json", false, "print as JSON")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs")
	runsListCmd.Flags().IntVar(&runsOffset, "offset", 0, "number of runs to skip")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
