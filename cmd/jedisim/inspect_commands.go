package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"jedisim/internal/pipeline"
	"jedisim/internal/preflight"
	"jedisim/internal/runner"
	"jedisim/internal/services"
	"jedisim/internal/settings"
)

var titleCaser = cases.Title(language.English)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var skipRotated bool
	var stagesOnly bool
	var caseName string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List every step of a run without executing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var only *settings.Case
			if caseName != "" {
				c, err := settings.ParseCase(caseName)
				if err != nil {
					return services.Wrap(services.ErrValidation, "cli", "plan", "--case", err)
				}
				only = &c
			}
			sess, err := newSession(cfg, sessionOptions{skipRotated: skipRotated})
			if err != nil {
				return err
			}
			steps := sess.seq.Plan()
			if stagesOnly {
				steps = sess.seq.Stages()
			}
			if only != nil {
				steps = pipeline.StepsForCase(steps, *only)
			}
			stages := 0
			for _, st := range steps {
				if st.Action == pipeline.ActionStage {
					stages++
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPlan(steps))
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d steps, %d stage invocations\n", len(steps), stages)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipRotated, "skip-rotated", false, "Plan the baseline case only")
	cmd.Flags().BoolVar(&stagesOnly, "stages", false, "List external stage invocations only")
	cmd.Flags().StringVar(&caseName, "case", "", "Limit the plan to the loop of one case (baseline or rotated)")
	return cmd
}

func renderPlan(steps []pipeline.Step) string {
	rows := make([][]string, 0, len(steps))
	for i, st := range steps {
		command := runner.CommandLine(st.Argv)
		if st.Action != pipeline.ActionStage {
			command = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			st.State.String(),
			titleCaser.String(st.Action.String()),
			titleCaser.String(st.Label),
			command,
		})
	}
	return renderTable(
		[]string{"#", "State", "Action", "Step", "Command"},
		rows,
		[]columnAlignment{alignRight},
	) + "\n"
}

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the physics settings namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sess, err := newSession(cfg, sessionOptions{})
			if err != nil {
				return err
			}
			ns := sess.ns
			if raw {
				ns = sess.raw
			}
			keys := ns.Keys()
			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				value, _ := ns.Get(key)
				rows = append(rows, []string{key, value})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings file: %s\n", cfg.SettingsPath())
			fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Show parsed values before derivation")
	return cmd
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify executables, settings and inputs before a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("jedisim preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "%sConfig: %s\n", statusIndent, displayPath(ctx.configPath, ctx.configExists))

			results := preflight.RunAll(cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "cli", "check",
					fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), nil)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func displayPath(path string, exists bool) string {
	if !exists {
		return "(defaults)"
	}
	return path
}
