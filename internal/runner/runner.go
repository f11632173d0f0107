package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"jedisim/internal/logging"
	"jedisim/internal/services"
)

// Result describes one completed stage invocation.
type Result struct {
	Label      string
	Argv       []string
	ExitCode   int
	Started    time.Time
	Elapsed    time.Duration
	SinceStart time.Duration
}

// StageError reports a stage that exited nonzero or could not be launched.
// ExitCode is -1 when the process never produced an exit status.
type StageError struct {
	Label      string
	Argv       []string
	ExitCode   int
	SinceStart time.Duration
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: stage %q failed (exit %d) after %s: %s: %v",
		services.ErrExternalTool, e.Label, e.ExitCode, e.SinceStart.Round(time.Millisecond), CommandLine(e.Argv), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is matches services.ErrExternalTool.
func (e *StageError) Is(target error) bool {
	return target == services.ErrExternalTool
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLogger sets the logger used for stage banners.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOutput sets where child stdout and stderr lines are copied. Passing nil
// discards them.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w == nil {
			w = io.Discard
		}
		r.output = w
	}
}

// WithDir sets the working directory of launched processes.
func WithDir(dir string) Option {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithStart fixes the pipeline start time used for elapsed-since-start.
func WithStart(start time.Time) Option {
	return func(r *Runner) {
		r.start = start
	}
}

// Runner executes stages one at a time.
type Runner struct {
	exec   Executor
	logger *slog.Logger
	output io.Writer
	outMu  sync.Mutex
	dir    string
	now    func() time.Time
	start  time.Time
}

// New constructs a Runner. Unless WithStart is given, the pipeline clock
// starts now.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger: logging.NewNop(),
		output: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.exec == nil {
		r.exec = commandExecutor{dir: r.dir}
	}
	if r.start.IsZero() {
		r.start = r.now()
	}
	r.logger = logging.NewComponentLogger(r.logger, "runner")
	return r
}

// Start reports the pipeline start time.
func (r *Runner) Start() time.Time { return r.start }

// Since reports the time elapsed since the pipeline started.
func (r *Runner) Since() time.Duration { return r.now().Sub(r.start) }

// Run launches argv[0] with the remaining elements as positional arguments
// and waits for it to exit.
func (r *Runner) Run(ctx context.Context, label string, argv []string) (Result, error) {
	argv = append([]string(nil), argv...)
	result := Result{Label: label, Argv: argv, ExitCode: -1}
	if _, ok := services.StageFromContext(ctx); !ok {
		ctx = services.WithStage(ctx, label)
	}
	logger := logging.WithContext(ctx, r.logger)

	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		err := &StageError{Label: label, Argv: argv, ExitCode: -1, SinceStart: r.Since(), Err: errors.New("empty command")}
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, &StageError{Label: label, Argv: argv, ExitCode: -1, SinceStart: r.Since(), Err: err}
	}

	result.Started = r.now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("command", CommandLine(argv)),
	)

	runErr := r.exec.Run(ctx, argv[0], argv[1:], r.writeLine)
	finished := r.now()
	result.Elapsed = finished.Sub(result.Started)
	result.SinceStart = finished.Sub(r.start)

	if runErr != nil {
		result.ExitCode = exitCodeOf(runErr)
		stageErr := &StageError{
			Label:      label,
			Argv:       argv,
			ExitCode:   result.ExitCode,
			SinceStart: result.SinceStart,
			Err:        runErr,
		}
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.String("command", CommandLine(argv)),
			logging.Strings("argv", argv),
			logging.Int("exit_code", result.ExitCode),
			logging.Duration("elapsed", result.Elapsed),
			logging.Float64("minutes_since_start", Minutes(result.SinceStart)),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, services.Hint(stageErr)),
		)
		return result, stageErr
	}

	result.ExitCode = 0
	logger.Info("stage finished",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", result.Elapsed),
		logging.Float64("minutes_since_start", Minutes(result.SinceStart)),
	)
	return result, nil
}

func (r *Runner) writeLine(line string) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	_, _ = io.WriteString(r.output, line+"\n")
}

func exitCodeOf(err error) int {
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}

// CommandLine renders argv for logs, quoting arguments that contain spaces.
func CommandLine(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			parts[i] = fmt.Sprintf("%q", arg)
			continue
		}
		parts[i] = arg
	}
	return strings.Join(parts, " ")
}

// Minutes converts d to fractional minutes rounded to two decimals.
func Minutes(d time.Duration) float64 {
	return float64(d.Round(600*time.Millisecond)) / float64(time.Minute)
}
