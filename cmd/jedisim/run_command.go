package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jedisim/internal/collect"
	"jedisim/internal/config"
	"jedisim/internal/history"
	"jedisim/internal/logging"
	"jedisim/internal/pipeline"
	"jedisim/internal/preflight"
	"jedisim/internal/services"
	"jedisim/internal/settings"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipRotated bool
	var skipCheck bool
	var realizations int
	var start int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the complete simulation pipeline",
		Long: "Run resets the output directories, runs the pre-loop stages, the 21 loop\n" +
			"iterations and the post-loop stages for the baseline case, then rewrites\n" +
			"the catalog for the rotated case and repeats the loop there.\n\n" +
			"With --realizations N the whole run repeats N times and the final images\n" +
			"of each realization are copied into one batch folder under collect_dir.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !cmd.Flags().Changed("realizations") {
				realizations = cfg.Pipeline.Realizations
			}
			if realizations < 0 || start < 0 {
				return services.Wrap(services.ErrValidation, "cli", "run",
					fmt.Sprintf("--realizations %d --start %d: values must be zero or positive", realizations, start), nil)
			}

			if !skipCheck {
				if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
					colorize := shouldColorize(out)
					for _, r := range failed {
						fmt.Fprintln(out, renderStatusLine(r.Name, statusError, r.Detail, colorize))
					}
					return services.Wrap(services.ErrConfiguration, "cli", "preflight",
						fmt.Sprintf("%d check(s) failed; run `jedisim check` for the full report", len(failed)), nil)
				}
			}

			return withLock(cfg, func() error {
				store, err := history.Open(cfg.HistoryPath())
				if err != nil {
					return err
				}
				defer store.Close()

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				spec := runSpec{skipRotated: skipRotated}
				if realizations == 0 {
					return executeRun(runCtx, cmd, cfg, store, spec)
				}

				raw, err := settings.ParseFile(cfg.SettingsPath())
				if err != nil {
					return err
				}
				spec.batch = uuid.NewString()
				spec.collectDir = collect.BatchDir(cfg.Paths.CollectDir, raw, time.Now())
				fmt.Fprintf(out, "Batch %s: %d realizations into %s\n", spec.batch, realizations, spec.collectDir)
				for i := start; i < start+realizations; i++ {
					spec.realization = i
					fmt.Fprintln(out, strings.Repeat("=", 40))
					fmt.Fprintf(out, "Realization %d (%d of %d)\n", i, i-start+1, realizations)
					if err := executeRun(runCtx, cmd, cfg, store, spec); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "Collected %d realizations in %s\n", realizations, spec.collectDir)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipRotated, "skip-rotated", false, "Run the baseline case only")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip preflight checks")
	cmd.Flags().IntVar(&realizations, "realizations", 0, "Repeat the run N times and collect each realization (default pipeline.realizations)")
	cmd.Flags().IntVar(&start, "start", 0, "Index of the first realization")
	return cmd
}

// runSpec describes one pipeline run. A non-empty batch makes it one
// realization whose products are collected into collectDir.
type runSpec struct {
	skipRotated bool
	batch       string
	realization int
	collectDir  string
}

// executeRun runs the pipeline once under its own run id and log file and
// journals it in store.
func executeRun(ctx context.Context, cmd *cobra.Command, cfg *config.Config, store *history.Store, spec runSpec) error {
	out := cmd.OutOrStdout()
	runID := uuid.NewString()
	logger, closeLogs, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = closeLogs() }()
	logger = logger.With(logging.String(logging.FieldRunID, runID))
	logging.CleanupOldLogs(logger, cfg.LogDir(), cfg.Logging.RetentionDays, logging.RunLogPath(cfg, runID))

	sess, err := newSession(cfg, sessionOptions{
		logger:      logger,
		out:         out,
		skipRotated: spec.skipRotated,
		observers:   []pipeline.Observer{history.NewRecorder(store, runID, logger)},
	})
	if err != nil {
		return err
	}

	ctx = services.WithRunID(ctx, runID)
	if err := store.BeginRun(ctx, history.Run{
		ID:           runID,
		Started:      time.Now(),
		SettingsPath: cfg.SettingsPath(),
		WorkDir:      cfg.Paths.WorkDir,
		Batch:        spec.batch,
		Realization:  spec.realization,
	}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %s\n", runID)
	report, runErr := sess.seq.Run(ctx)
	if runErr == nil && spec.batch != "" {
		runErr = collectRealization(ctx, sess, store, runID, spec)
	}
	finished := report.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	if err := store.FinishRun(context.WithoutCancel(ctx), runID, finished, report.Final.String(), runErr); err != nil {
		logging.WarnWithContext(logger, "run history finish failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shows this run as running"),
		)
	}

	fmt.Fprintln(out, strings.Repeat("-", 40))
	printReport(out, report)
	fmt.Fprintf(out, "Log file:    %s\n", logging.RunLogPath(cfg, runID))
	if runErr != nil {
		var perr *pipeline.Error
		if errors.As(runErr, &perr) {
			fmt.Fprintf(out, "Stopped in:  %s\n", perr.State)
		}
		return runErr
	}
	return nil
}

func collectRealization(ctx context.Context, sess *session, store *history.Store, runID string, spec runSpec) error {
	rotated := sess.cfg.Pipeline.Rotated && !spec.skipRotated
	collector := collect.New(spec.collectDir, sess.cfg.Paths.WorkDir, rotated, sess.logger)
	written, err := collector.Collect(sess.ns, spec.realization)
	if err != nil {
		return err
	}
	if err := store.SetOutputDir(context.WithoutCancel(ctx), runID, collector.Dir()); err != nil {
		logging.WarnWithContext(sess.logger, "run history output dir failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history omits the batch folder of this realization"),
		)
	}
	for _, path := range written {
		fmt.Fprintf(sess.out, "collected %s\n", path)
	}
	return nil
}

func newDirsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dirs",
		Short: "Reset and create the output directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withLock(cfg, func() error {
				logger, closeLogs := commandLogger(cfg)
				defer func() { _ = closeLogs() }()
				sess, err := newSession(cfg, sessionOptions{logger: logger, out: cmd.OutOrStdout()})
				if err != nil {
					return err
				}
				if _, err := sess.seq.ProvisionOnly(cmd.Context()); err != nil {
					return err
				}
				layout := sess.seq.Layout()
				out := cmd.OutOrStdout()
				for _, dir := range layout.Reset {
					fmt.Fprintln(out, "reset", dir)
				}
				for _, n := range layout.Numbered {
					fmt.Fprintf(out, "created %d numbered folders under %s\n", n.Count*len(n.Names), n.Base)
				}
				return nil
			})
		},
	}
}

func newRotateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Write the rotated catalog and lists from the baseline outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withLock(cfg, func() error {
				logger, closeLogs := commandLogger(cfg)
				defer func() { _ = closeLogs() }()
				sess, err := newSession(cfg, sessionOptions{logger: logger, out: cmd.OutOrStdout()})
				if err != nil {
					return err
				}
				report, err := sess.seq.RotateOnly(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rotated catalogs ready (%s)\n", report.Final)
				return nil
			})
		},
	}
}
