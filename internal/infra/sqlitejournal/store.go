package sqlitejournal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/osvaldoandrade/envprov/internal/app/history"
	"github.com/osvaldoandrade/envprov/internal/domain"
	_ "modernc.org/sqlite"
)

// Store journals provisioning runs in a local SQLite database.
type Store struct {
	db *sql.DB
}

type OpenOptions struct {
	Fast bool
	// ReadOnly opens an existing journal with mode=ro. The file is never
	// created and the schema is left as found.
	ReadOnly bool
}

func Open(path string) (*Store, error) {
	return OpenWithOptions(path, OpenOptions{})
}

func OpenWithOptions(path string, opts OpenOptions) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path required")
	}

	dsn := path
	if opts.ReadOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		dsn = readOnlyDSN(path)
	} else if shouldCreateDir(path) {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.applyPragmas(context.Background(), opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	if opts.ReadOnly {
		return store, nil
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores report, replacing any earlier record with the same run
// ID.
func (s *Store) RecordRun(ctx context.Context, report domain.Report) error {
	if strings.TrimSpace(report.RunID) == "" {
		return history.ErrRunIDRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	aborted := 0
	if report.Aborted {
		aborted = 1
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, manifest_path, manifest_digest, policy, stage, aborted, failed_step, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			manifest_path = excluded.manifest_path,
			manifest_digest = excluded.manifest_digest,
			policy = excluded.policy,
			stage = excluded.stage,
			aborted = excluded.aborted,
			failed_step = excluded.failed_step,
			error = excluded.error,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`,
		report.RunID,
		report.ManifestPath,
		report.ManifestDigest,
		string(report.Policy),
		string(report.Stage),
		aborted,
		report.FailedStep,
		report.Error,
		unixNano(report.StartedAt),
		unixNano(report.FinishedAt),
	); err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM steps WHERE run_id = ?", report.RunID); err != nil {
		return fmt.Errorf("clear steps: %w", err)
	}
	for i, step := range report.Steps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO steps (run_id, seq, kind, target, status, message, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, report.RunID, i, string(step.Kind), step.Target, string(step.Status), step.Message, int64(step.Duration)); err != nil {
			return fmt.Errorf("write step %s: %w", step.Label(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		return nil, history.ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx, selectRuns+" ORDER BY started_at DESC, run_id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var reports []domain.Report
	for rows.Next() {
		report, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close run rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	for i := range reports {
		steps, err := s.loadSteps(ctx, reports[i].RunID)
		if err != nil {
			return nil, err
		}
		reports[i].Steps = steps
	}
	return reports, nil
}

func (s *Store) LoadRun(ctx context.Context, runID string) (domain.Report, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE run_id = ?", runID)
	report, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Report{}, fmt.Errorf("%w: %s", history.ErrRunNotFound, runID)
		}
		return domain.Report{}, err
	}
	steps, err := s.loadSteps(ctx, runID)
	if err != nil {
		return domain.Report{}, err
	}
	report.Steps = steps
	return report, nil
}

// LastRun returns the most recent run, if any.
func (s *Store) LastRun(ctx context.Context) (domain.Report, bool, error) {
	reports, err := s.ListRuns(ctx, 1)
	if err != nil {
		return domain.Report{}, false, err
	}
	if len(reports) == 0 {
		return domain.Report{}, false, nil
	}
	return reports[0], true, nil
}

const selectRuns = `
	SELECT run_id, manifest_path, manifest_digest, policy, stage, aborted, failed_step, error, started_at, finished_at
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (domain.Report, error) {
	var report domain.Report
	var policy, stage string
	var aborted int
	var startedAt, finishedAt int64
	if err := row.Scan(
		&report.RunID,
		&report.ManifestPath,
		&report.ManifestDigest,
		&policy,
		&stage,
		&aborted,
		&report.FailedStep,
		&report.Error,
		&startedAt,
		&finishedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Report{}, err
		}
		return domain.Report{}, fmt.Errorf("read run: %w", err)
	}
	report.Policy = domain.Policy(policy)
	report.Stage = domain.Stage(stage)
	report.Aborted = aborted != 0
	report.StartedAt = fromUnixNano(startedAt)
	report.FinishedAt = fromUnixNano(finishedAt)
	return report, nil
}

func (s *Store) loadSteps(ctx context.Context, runID string) ([]domain.StepResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, target, status, message, duration_ns
		FROM steps WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.StepResult
	for rows.Next() {
		var step domain.StepResult
		var kind, status string
		var duration int64
		if err := rows.Scan(&kind, &step.Target, &status, &step.Message, &duration); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Kind = domain.StepKind(kind)
		step.Status = domain.StepStatus(status)
		step.Duration = time.Duration(duration)
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			manifest_path TEXT NOT NULL,
			manifest_digest TEXT NOT NULL DEFAULT '',
			policy TEXT NOT NULL,
			stage TEXT NOT NULL,
			aborted INTEGER NOT NULL CHECK (aborted IN (0, 1)),
			failed_step TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			target TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			duration_ns INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, seq)
		)
	`); err != nil {
		return fmt.Errorf("create steps table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at)"); err != nil {
		return fmt.Errorf("create runs index: %w", err)
	}
	return nil
}

func (s *Store) applyPragmas(ctx context.Context, opts OpenOptions) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if !opts.Fast || opts.ReadOnly {
		return nil
	}
	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
		return fmt.Errorf("set journal_mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous = NORMAL"); err != nil {
		return fmt.Errorf("set synchronous: %w", err)
	}
	return nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func shouldCreateDir(path string) bool {
	if path == ":memory:" {
		return false
	}
	if strings.HasPrefix(path, "file:") {
		return false
	}
	return true
}

func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}
	return u.String()
}
