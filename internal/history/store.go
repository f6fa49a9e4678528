package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store keeps one row per check run in a local sqlite file.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) SaveRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.RunID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	if run.SchemaVersion == 0 {
		run.SchemaVersion = SchemaVersion
	}
	if run.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported run schema version %d", run.SchemaVersion)
	}

	byCategory := []byte("{}")
	if len(run.ByCategory) > 0 {
		encoded, err := json.Marshal(run.ByCategory)
		if err != nil {
			return fmt.Errorf("encode category counts: %w", err)
		}
		byCategory = encoded
	}

	query := `
INSERT INTO runs (
  run_id, schema_version, ts_utc, target_path, file_count, subsystem_count,
  error_count, warning_count, by_category, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  schema_version=excluded.schema_version,
  ts_utc=excluded.ts_utc,
  target_path=excluded.target_path,
  file_count=excluded.file_count,
  subsystem_count=excluded.subsystem_count,
  error_count=excluded.error_count,
  warning_count=excluded.warning_count,
  by_category=excluded.by_category,
  duration_ms=excluded.duration_ms
`
	return s.withRetry("save run", func() error {
		_, err := s.db.Exec(
			query,
			run.RunID,
			run.SchemaVersion,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.TargetPath,
			run.FileCount,
			run.SubsystemCount,
			run.ErrorCount,
			run.WarningCount,
			string(byCategory),
			run.DurationMS,
		)
		return err
	})
}

func (s *Store) LoadRuns(targetPath string, since time.Time) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT
  run_id, schema_version, ts_utc, target_path, file_count, subsystem_count,
  error_count, warning_count, by_category, duration_ms
FROM runs
WHERE 1=1
`
	args := make([]any, 0, 2)
	if targetPath != "" {
		base += " AND target_path = ?"
		args = append(args, targetPath)
	}
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc ASC, run_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			tsRaw         string
			byCategoryRaw string
			run           Run
		)
		if err := rows.Scan(
			&run.RunID,
			&run.SchemaVersion,
			&tsRaw,
			&run.TargetPath,
			&run.FileCount,
			&run.SubsystemCount,
			&run.ErrorCount,
			&run.WarningCount,
			&byCategoryRaw,
			&run.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()

		if byCategoryRaw != "" && byCategoryRaw != "{}" {
			if err := json.Unmarshal([]byte(byCategoryRaw), &run.ByCategory); err != nil {
				return nil, fmt.Errorf("decode category counts: %w", err)
			}
		}

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
