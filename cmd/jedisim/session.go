package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"jedisim/internal/config"
	"jedisim/internal/logging"
	"jedisim/internal/pipeline"
	"jedisim/internal/runner"
	"jedisim/internal/services"
	"jedisim/internal/services/jedi"
	"jedisim/internal/settings"
	"jedisim/internal/weights"
	"jedisim/internal/workspace"
)

// session bundles everything one invocation of the pipeline needs.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	raw    settings.Namespace
	ns     settings.Namespace
	runner *runner.Runner
	seq    *pipeline.Sequencer
}

type sessionOptions struct {
	logger      *slog.Logger
	out         io.Writer
	skipRotated bool
	observers   []pipeline.Observer
}

// enterWorkDir makes work_dir the process working directory so relative
// paths in the physics settings resolve the way the stage executables see
// them.
func enterWorkDir(cfg *config.Config) error {
	if err := os.Chdir(cfg.Paths.WorkDir); err != nil {
		return services.Wrap(services.ErrNotFound, "cli", "enter work dir", cfg.Paths.WorkDir, err)
	}
	return nil
}

func newSession(cfg *config.Config, opts sessionOptions) (*session, error) {
	if err := enterWorkDir(cfg); err != nil {
		return nil, err
	}
	raw, ns, err := settings.Load(cfg.SettingsPath())
	if err != nil {
		return nil, err
	}
	weightsPath, err := ns.Require(settings.KeyWeightsInfile)
	if err != nil {
		return nil, err
	}
	table, err := weights.LoadFile(weightsPath)
	if err != nil {
		return nil, err
	}

	logger := opts.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	out := opts.out
	if out == nil {
		out = os.Stdout
	}
	run := runner.New(
		runner.WithLogger(logger),
		runner.WithOutput(out),
		runner.WithDir(cfg.Paths.WorkDir),
	)

	pipeOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	for _, obs := range opts.observers {
		pipeOpts = append(pipeOpts, pipeline.WithObserver(obs))
	}
	seq, err := pipeline.New(ns, table, jedi.New(cfg), run, pipeline.Config{
		SettingsPath:      cfg.SettingsPath(),
		PSFPattern:        cfg.Paths.PSFPattern,
		Iterations:        cfg.Pipeline.Iterations,
		BatchSize:         cfg.Pipeline.BatchSize,
		Rotated:           cfg.Pipeline.Rotated && !opts.skipRotated,
		WriteAverageLists: cfg.Pipeline.WriteAverageLists,
	}, pipeOpts...)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, out: out, raw: raw, ns: ns, runner: run, seq: seq}, nil
}

// withLock runs fn while holding the workspace lock.
func withLock(cfg *config.Config, fn func() error) error {
	lock, err := workspace.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	return fn()
}

func printReport(w io.Writer, report pipeline.Report) {
	fmt.Fprintf(w, "Final state: %s\n", report.Final)
	fmt.Fprintf(w, "Steps run:   %d\n", report.Steps)
	fmt.Fprintf(w, "Begin:       %s\n", report.Started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "End:         %s\n", report.Finished.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Total:       %s (%.1f minutes)\n", report.Duration().Round(time.Second), runner.Minutes(report.Duration()))
}

// commandLogger is the console logger for commands that are not full runs.
func commandLogger(cfg *config.Config) (*slog.Logger, logging.Closer) {
	logger, closeLogs, err := logging.NewFromConfig(cfg, "")
	if err != nil {
		return logging.NewNop(), func() error { return nil }
	}
	return logger, closeLogs
}
