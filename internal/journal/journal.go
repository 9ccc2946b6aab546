// Package journal persists alert events to SQLite so fired and resolved
// alerts outlive the process.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
)

// MemoryPath opens a journal that lives only as long as the process.
const MemoryPath = ":memory:"

// writeTimeout bounds a single Record issued from a subscriber callback.
const writeTimeout = 2 * time.Second

// Journal is an append-only log of alert events.
type Journal struct {
	db   *sql.DB
	path string
	log  logger.Logger
}

// Open opens (creating if needed) the journal database at path.
func Open(path string, log logger.Logger) (*Journal, error) {
	if log == nil {
		log = logger.NewEnvLogger("[journal]")
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrJournal,
				fmt.Sprintf("Cannot create journal directory for %s", path),
				"Check journal.path points somewhere writable")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrJournal,
			fmt.Sprintf("Cannot open alert journal at %s", path),
			"Check journal.path points somewhere writable")
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	pragmas := []string{`PRAGMA busy_timeout=5000;`}
	if path != MemoryPath {
		pragmas = append(pragmas, `PRAGMA journal_mode=WAL;`)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errors.WrapWithCode(err, errors.ErrJournal,
				fmt.Sprintf("Cannot configure alert journal at %s", path),
				"The file may be locked or not a SQLite database")
		}
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, errors.WrapWithCode(err, errors.ErrJournal,
			"Cannot initialise alert journal schema",
			"Delete the journal file to start fresh")
	}

	log.Debug("opened %s", path)
	return &Journal{db: db, path: path, log: log}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alert_events (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			rule_id TEXT NOT NULL,
			rule_name TEXT NOT NULL,
			metric TEXT NOT NULL,
			operator TEXT NOT NULL,
			threshold REAL NOT NULL,
			severity TEXT NOT NULL,
			value REAL NOT NULL,
			message TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alert_events_created ON alert_events(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_alert_events_rule ON alert_events(rule_id, created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database location.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends ev. Recording the same event ID twice is a no-op.
func (j *Journal) Record(ctx context.Context, ev alert.Event) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO alert_events
			(id, kind, rule_id, rule_name, metric, operator, threshold, severity, value, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Kind), ev.RuleID, ev.RuleName, string(ev.Metric), ev.Operator,
		ev.Threshold, string(ev.Severity), ev.Value, ev.Message, ev.Timestamp.UnixNano(),
	)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrJournal,
			fmt.Sprintf("Cannot record alert event %s", ev.ID), "")
	}
	return nil
}

// Handler returns an alert subscriber that records every event. Write
// failures are logged rather than returned, since subscribers cannot fail.
func (j *Journal) Handler() func(alert.Event) {
	return func(ev alert.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := j.Record(ctx, ev); err != nil {
			j.log.Error("%v", err)
		}
	}
}

// Query filters Recent results. Zero values mean no filter.
type Query struct {
	RuleID string
	Kind   alert.Kind
	Since  time.Time
	Limit  int
}

// DefaultLimit is used when a query gives no limit.
const DefaultLimit = 50

// Recent returns matching events, newest first.
func (j *Journal) Recent(ctx context.Context, q Query) ([]alert.Event, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}

	stmt := `SELECT id, kind, rule_id, rule_name, metric, operator, threshold, severity, value, message, created_at
		FROM alert_events WHERE 1=1`
	var args []any
	if q.RuleID != "" {
		stmt += ` AND rule_id = ?`
		args = append(args, q.RuleID)
	}
	if q.Kind != "" {
		stmt += ` AND kind = ?`
		args = append(args, string(q.Kind))
	}
	if !q.Since.IsZero() {
		stmt += ` AND created_at >= ?`
		args = append(args, q.Since.UnixNano())
	}
	stmt += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := j.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrJournal, "Cannot read alert journal", "")
	}
	defer rows.Close()

	var out []alert.Event
	for rows.Next() {
		var (
			ev                     alert.Event
			kind, metric, severity string
			created                int64
		)
		if err := rows.Scan(&ev.ID, &kind, &ev.RuleID, &ev.RuleName, &metric, &ev.Operator,
			&ev.Threshold, &severity, &ev.Value, &ev.Message, &created); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrJournal, "Cannot decode alert journal row", "")
		}
		ev.Kind = alert.Kind(kind)
		ev.Metric = alert.Metric(metric)
		ev.Severity = alert.Severity(severity)
		ev.Timestamp = time.Unix(0, created).UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrJournal, "Cannot read alert journal", "")
	}
	return out, nil
}

// Count returns the number of recorded events.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_events`).Scan(&n); err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrJournal, "Cannot count alert journal rows", "")
	}
	return n, nil
}

// Prune deletes events older than before and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM alert_events WHERE created_at < ?`, before.UnixNano())
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrJournal, "Cannot prune alert journal", "")
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		j.log.Debug("pruned %d events older than %s", n, before.Format(time.RFC3339))
	}
	return n, nil
}
