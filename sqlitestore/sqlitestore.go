// Package sqlitestore persists structured log entries in a SQLite
// database. It implements justlog.Sink for writes and exposes the
// level-filtered, paginated query surface the logview viewer reads
// from. The core logger only ever sees the Sink interface; any other
// store can take this package's place.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/justlog/justlog"
)

// Timestamps are stored UTC with fixed-width fractional seconds so
// lexicographic order matches chronological order in SQL comparisons.
const timestampLayout = "2006-01-02 15:04:05.000000000"

const schema = `
CREATE TABLE IF NOT EXISTS log_entries (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT    NOT NULL,
	level     INTEGER NOT NULL,
	message   TEXT    NOT NULL,
	args      TEXT,
	fields    TEXT
);
CREATE INDEX IF NOT EXISTS idx_log_entries_timestamp ON log_entries (timestamp);
CREATE INDEX IF NOT EXISTS idx_log_entries_level ON log_entries (level);
`

// Store is a SQLite-backed structured log store.
type Store struct {
	db *sql.DB
}

var _ justlog.Sink = (*Store)(nil)

// Open opens (creating if necessary) the log database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize log schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Emit inserts one entry. Values that cannot be JSON-encoded are
// stored as their fmt rendering; Emit never fails on a bad value, only
// on database errors.
func (s *Store) Emit(e justlog.Entry) error {
	args, err := marshalExtra(e.Args)
	if err != nil {
		return err
	}
	fields, err := marshalExtra(e.Fields)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO log_entries (timestamp, level, message, args, fields) VALUES (?, ?, ?, ?, ?)`,
		e.Time.UTC().Format(timestampLayout), int(e.Level), e.Message, args, fields,
	)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

func marshalExtra(v interface{}) (sql.NullString, error) {
	switch x := v.(type) {
	case []interface{}:
		if len(x) == 0 {
			return sql.NullString{}, nil
		}
	case map[string]interface{}:
		if len(x) == 0 {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		data, err = json.Marshal(fmt.Sprintf("%v", v))
		if err != nil {
			return sql.NullString{}, fmt.Errorf("failed to encode log extras: %w", err)
		}
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// Query returns one page of stored entries at or above minLevel,
// newest first, along with the total number of matching entries.
// minLevel justlog.Disabled matches everything; page counts from 1.
func (s *Store) Query(minLevel justlog.Level, page, perPage int) ([]justlog.Entry, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 200
	}

	var total int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM log_entries WHERE level >= ?`, int(minLevel),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count log entries: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT timestamp, level, message, args, fields
		 FROM log_entries WHERE level >= ?
		 ORDER BY id DESC LIMIT ? OFFSET ?`,
		int(minLevel), perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	var entries []justlog.Entry
	for rows.Next() {
		var (
			ts           string
			level        int
			message      string
			args, fields sql.NullString
		)
		if err := rows.Scan(&ts, &level, &message, &args, &fields); err != nil {
			return nil, 0, fmt.Errorf("failed to scan log entry: %w", err)
		}

		entry := justlog.Entry{
			Level:   justlog.Level(level),
			Message: message,
		}
		if parsed, err := time.ParseInLocation(timestampLayout, ts, time.UTC); err == nil {
			entry.Time = parsed
		}
		if args.Valid {
			json.Unmarshal([]byte(args.String), &entry.Args)
		}
		if fields.Valid {
			json.Unmarshal([]byte(fields.String), &entry.Fields)
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

// Prune deletes entries older than the cutoff and reports how many
// were removed.
func (s *Store) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM log_entries WHERE timestamp < ?`,
		olderThan.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune log entries: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
