package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one row of the runs table.
type Run struct {
	ID           string
	Started      time.Time
	Finished     time.Time
	Status       Status
	FinalState   string
	Error        string
	SettingsPath string
	WorkDir      string
	// Batch groups the realizations of one multi-realization run. Empty for
	// a single run.
	Batch       string
	Realization int
	// OutputDir is where the realization's products were collected.
	OutputDir string
	Stages    int
}

// Duration returns the run length, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// StageRecord is one executed step.
type StageRecord struct {
	RunID    string
	Seq      int
	State    string
	Action   string
	Label    string
	Argv     []string
	ExitCode int
	Elapsed  time.Duration
	Error    string
	Finished time.Time
}

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id required")
	}
	var realization any
	if run.Batch != "" {
		realization = run.Realization
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status, final_state, settings_path, work_dir, batch_id, realization)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTime(run.Started),
		StatusRunning,
		"Init",
		nullableString(run.SettingsPath),
		nullableString(run.WorkDir),
		nullableString(run.Batch),
		realization,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateState records the last state a run reached.
func (s *Store) UpdateState(ctx context.Context, runID, state string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE runs SET final_state = ? WHERE id = ?`, state, runID); err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	return nil
}

// SetOutputDir records where a realization's products were collected.
func (s *Store) SetOutputDir(ctx context.Context, runID, dir string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET output_dir = ? WHERE id = ?`, nullableString(dir), runID)
	if err != nil {
		return fmt.Errorf("set output dir: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set output dir: unknown run %q", runID)
	}
	return nil
}

// FinishRun closes a run with its outcome.
func (s *Store) FinishRun(ctx context.Context, runID string, finished time.Time, finalState string, runErr error) error {
	status := StatusSucceeded
	var message any
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, final_state = ?, error_message = ? WHERE id = ?`,
		formatTime(finished), status, finalState, message, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", runID)
	}
	return nil
}

// RecordStage appends a step row.
func (s *Store) RecordStage(ctx context.Context, rec StageRecord) error {
	argv, err := json.Marshal(rec.Argv)
	if err != nil {
		return fmt.Errorf("marshal argv: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stages (run_id, seq, state, action, label, argv_json, exit_code, elapsed_ms, error_message, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Seq,
		rec.State,
		rec.Action,
		rec.Label,
		string(argv),
		rec.ExitCode,
		rec.Elapsed.Milliseconds(),
		nullableString(rec.Error),
		formatTime(rec.Finished),
	)
	if err != nil {
		return fmt.Errorf("insert stage: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT r.id, r.started_at, r.finished_at, r.status, r.final_state, r.error_message,
                     r.settings_path, r.work_dir, r.batch_id, r.realization, r.output_dir,
                     (SELECT COUNT(1) FROM stages s WHERE s.run_id = r.id)
              FROM runs r ORDER BY r.started_at DESC, r.id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run by id. sql.ErrNoRows is returned for unknown ids.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.started_at, r.finished_at, r.status, r.final_state, r.error_message,
                r.settings_path, r.work_dir, r.batch_id, r.realization, r.output_dir,
                (SELECT COUNT(1) FROM stages s WHERE s.run_id = r.id)
         FROM runs r WHERE r.id = ?`, id)
	return scanRun(row)
}

// Stages returns the steps of a run in execution order.
func (s *Store) Stages(ctx context.Context, runID string) ([]StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, state, action, label, argv_json, exit_code, elapsed_ms, error_message, finished_at
         FROM stages WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var out []StageRecord
	for rows.Next() {
		var (
			rec       StageRecord
			argvJSON  string
			elapsedMS int64
			message   sql.NullString
			finished  string
		)
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.State, &rec.Action, &rec.Label, &argvJSON,
			&rec.ExitCode, &elapsedMS, &message, &finished); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		if err := json.Unmarshal([]byte(argvJSON), &rec.Argv); err != nil {
			return nil, fmt.Errorf("decode argv: %w", err)
		}
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		rec.Error = message.String
		rec.Finished = parseTime(finished)
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                   Run
		started               string
		finished, message     sql.NullString
		settingsPath, workDir sql.NullString
		batch, outputDir      sql.NullString
		realization           sql.NullInt64
		status                string
	)
	if err := row.Scan(&run.ID, &started, &finished, &status, &run.FinalState, &message,
		&settingsPath, &workDir, &batch, &realization, &outputDir, &run.Stages); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Started = parseTime(started)
	if finished.Valid {
		run.Finished = parseTime(finished.String)
	}
	run.Status = Status(status)
	run.Error = message.String
	run.SettingsPath = settingsPath.String
	run.WorkDir = workDir.String
	run.Batch = batch.String
	run.Realization = int(realization.Int64)
	run.OutputDir = outputDir.String
	return run, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
