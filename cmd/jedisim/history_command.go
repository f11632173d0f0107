package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"jedisim/internal/history"
	"jedisim/internal/runner"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past runs, or the steps of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("run %s: %w", args[0], err)
				}
				stages, err := store.Stages(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Run %s: %s, reached %s\n", run.ID, run.Status, run.FinalState)
				if run.Batch != "" {
					fmt.Fprintf(out, "Realization %d of batch %s\n", run.Realization, run.Batch)
				}
				if run.OutputDir != "" {
					fmt.Fprintf(out, "Collected: %s\n", run.OutputDir)
				}
				if run.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", run.Error)
				}
				fmt.Fprintln(out, renderStageRows(stages))
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRunRows(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 for all)")
	return cmd
}

func renderRunRows(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		duration := "-"
		if d := r.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		realization := "-"
		if r.Batch != "" {
			realization = strconv.Itoa(r.Realization)
		}
		rows = append(rows, []string{
			r.ID,
			r.Started.Local().Format("2006-01-02 15:04"),
			realization,
			duration,
			string(r.Status),
			r.FinalState,
			strconv.Itoa(r.Stages),
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Realization", "Duration", "Status", "Final State", "Steps"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignRight},
	)
}

func renderStageRows(stages []history.StageRecord) string {
	rows := make([][]string, 0, len(stages))
	for _, s := range stages {
		rows = append(rows, []string{
			strconv.Itoa(s.Seq),
			s.State,
			titleCaser.String(s.Label),
			strconv.Itoa(s.ExitCode),
			fmt.Sprintf("%.2f", runner.Minutes(s.Elapsed)),
			runner.CommandLine(s.Argv),
		})
	}
	return renderTable(
		[]string{"#", "State", "Step", "Exit", "Minutes", "Command"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)
}
