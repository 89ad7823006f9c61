package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/bidwatch-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db       *sql.DB
	cacheTTL time.Duration
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. cacheTTL bounds how long cached fragments are served.
func NewSQLite(dsn string, cacheTTL time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &SQLiteStore{db: db, cacheTTL: cacheTTL}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	start_url   TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	pages       INTEGER NOT NULL DEFAULT 0,
	records     INTEGER NOT NULL DEFAULT 0,
	failures    INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS fragment_cache (
	url        TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_fragment_cache_expires_at ON fragment_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, startURL string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		StartURL:  startURL,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, start_url, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.StartURL, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, pages, records, failures int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, pages = ?, records = ?, failures = ?, finished_at = ? WHERE id = ?`,
		string(model.RunStatusCompleted), pages, records, failures, time.Now().UTC(), runID,
	)
	return eris.Wrap(err, "sqlite: complete run")
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), message, time.Now().UTC(), runID,
	)
	return eris.Wrap(err, "sqlite: fail run")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_url, status, pages, records, failures, COALESCE(error, ''), started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var (
			run      model.Run
			status   string
			finished sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.StartURL, &status, &run.Pages, &run.Records,
			&run.Failures, &run.Error, &run.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		run.Status = model.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) GetFragment(ctx context.Context, url string) (string, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM fragment_cache WHERE url = ? AND expires_at > ?`,
		url, time.Now().UTC(),
	).Scan(&body)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "sqlite: get fragment")
	}
	return body, true, nil
}

func (s *SQLiteStore) PutFragment(ctx context.Context, url, body string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fragment_cache (url, body, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		url, body, now, now.Add(s.cacheTTL),
	)
	return eris.Wrap(err, "sqlite: put fragment")
}
