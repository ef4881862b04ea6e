// Package buildlog records builds and per-page outcomes in a SQLite ledger.
package buildlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

// Page statuses.
const (
	StatusWritten = "written"
	StatusFailed  = "failed"
)

// Build is one recorded build.
type Build struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Pages      int
	Failed     int
	Error      string
}

// Duration is the wall time of a finished build.
func (b Build) Duration() time.Duration {
	if b.FinishedAt.IsZero() {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

// PageRecord is one page outcome of a build.
type PageRecord struct {
	BuildID     string
	Output      string
	Source      string
	Tree        string
	Mode        string
	Fingerprint string
	Status      string
	Duration    time.Duration
	Error       string
}

// Ledger is a SQLite-backed build history.
type Ledger struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the ledger at path. Use ":memory:" for an
// in-memory ledger.
func Open(path string) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return l, nil
}

func (l *Ledger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		outcome TEXT NOT NULL DEFAULT 'running',
		pages INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		output TEXT NOT NULL,
		source TEXT,
		tree TEXT,
		mode TEXT NOT NULL,
		fingerprint TEXT,
		status TEXT NOT NULL,
		duration_us INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_pages_build_id ON pages(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Begin records the start of a build.
func (l *Ledger) Begin(ctx context.Context, buildID string, started time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx,
		"INSERT INTO builds (id, started_at) VALUES (?, ?)",
		buildID, started.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Finish records the outcome of a build started with Begin.
func (l *Ledger) Finish(ctx context.Context, b Build) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.ExecContext(ctx,
		"UPDATE builds SET finished_at = ?, outcome = ?, pages = ?, failed = ?, error = ? WHERE id = ?",
		b.FinishedAt.UnixMilli(), b.Outcome, b.Pages, b.Failed, nullString(b.Error), b.ID,
	)
	if err != nil {
		return fmt.Errorf("update build: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update build: unknown build %s", b.ID)
	}
	return nil
}

// RecordPage stores one page outcome.
func (l *Ledger) RecordPage(ctx context.Context, p PageRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO pages (build_id, output, source, tree, mode, fingerprint, status, duration_us, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.BuildID, p.Output, nullString(p.Source), nullString(p.Tree), p.Mode,
		nullString(p.Fingerprint), p.Status, p.Duration.Microseconds(), nullString(p.Error),
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

// Recent returns up to limit builds, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Build, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, pages, failed, error
		FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		var started int64
		var finished sql.NullInt64
		var errText sql.NullString
		if err := rows.Scan(&b.ID, &started, &finished, &b.Outcome, &b.Pages, &b.Failed, &errText); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		b.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			b.FinishedAt = time.UnixMilli(finished.Int64)
		}
		b.Error = errText.String
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return builds, nil
}

// Pages returns the page outcomes of a build in the order they were
// recorded.
func (l *Ledger) Pages(ctx context.Context, buildID string) ([]PageRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.QueryContext(ctx,
		`SELECT build_id, output, source, tree, mode, fingerprint, status, duration_us, error
		FROM pages WHERE build_id = ? ORDER BY id`,
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var source, tree, fp, errText sql.NullString
		var durationUS int64
		if err := rows.Scan(&p.BuildID, &p.Output, &source, &tree, &p.Mode, &fp, &p.Status, &durationUS, &errText); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.Source, p.Tree, p.Fingerprint, p.Error = source.String, tree.String, fp.String, errText.String
		p.Duration = time.Duration(durationUS) * time.Microsecond
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return pages, nil
}

// LastFingerprint returns the fingerprint recorded for source by the most
// recent successful write, or "" when there is none.
func (l *Ledger) LastFingerprint(ctx context.Context, source string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var fp sql.NullString
	err := l.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM pages WHERE source = ? AND status = ? ORDER BY id DESC LIMIT 1",
		source, StatusWritten,
	).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query fingerprint: %w", err)
	}
	return fp.String, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}

// Observer returns a site.Observer that records every page of buildID.
// Write failures are logged; they never fail the build.
func (l *Ledger) Observer(ctx context.Context, buildID string, logger *slog.Logger) site.Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &observer{ctx: ctx, ledger: l, buildID: buildID, logger: logger}
}

type observer struct {
	ctx     context.Context
	ledger  *Ledger
	buildID string
	logger  *slog.Logger
}

func (o *observer) ObservePage(r site.PageResult) {
	rec := PageRecord{
		BuildID:     o.buildID,
		Output:      r.Output,
		Source:      r.Source,
		Tree:        r.Tree,
		Mode:        r.Mode,
		Fingerprint: r.Fingerprint,
		Status:      StatusWritten,
		Duration:    r.Duration,
	}
	if r.Err != nil {
		rec.Status = StatusFailed
		rec.Error = r.Err.Error()
	}
	// A canceled build still gets its page outcomes recorded.
	if err := o.ledger.RecordPage(context.WithoutCancel(o.ctx), rec); err != nil {
		o.logger.Warn("Failed to record page in ledger",
			logfields.BuildID(o.buildID),
			logfields.Output(r.Output),
			logfields.Error(err))
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
