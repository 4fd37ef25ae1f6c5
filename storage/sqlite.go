package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB is a SQLite message log.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path and creates the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: enable WAL: %w", err)
	}

	d := &DB{db: db}
	if err = d.CreateSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Infof("sqlite: opened %s", path)
	return d, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT,
		channel TEXT NOT NULL,
		protocol TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		type TEXT NOT NULL,
		code INTEGER NOT NULL,
		valid INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		corrected INTEGER NOT NULL DEFAULT 0,
		identifiers TEXT NOT NULL,
		text TEXT NOT NULL,
		raw TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_messages_protocol ON messages(protocol, type);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
	`
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage: create schema: %w", err)
	}
	return nil
}

func (d *DB) Insert(ctx context.Context, r Record) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO messages (session, channel, protocol, timestamp, type, code, valid, outcome, corrected, identifiers, text, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Session, r.Channel, r.Protocol, r.Timestamp.UTC().Format(time.RFC3339Nano), r.Type, r.Code, r.Valid,
		r.Outcome, r.Corrected, r.Identifiers, r.Text, r.Raw)
	if err != nil {
		return fmt.Errorf("storage: insert: %w", err)
	}
	return nil
}

// Recent returns the last n records, newest first.
func (d *DB) Recent(ctx context.Context, n int) ([]Record, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT session, channel, protocol, timestamp, type, code, valid, outcome, corrected, identifiers, text, raw
		FROM messages ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("storage: query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			ts      string
			session sql.NullString
			raw     sql.NullString
		)
		if err = rows.Scan(&session, &r.Channel, &r.Protocol, &ts, &r.Type, &r.Code, &r.Valid,
			&r.Outcome, &r.Corrected, &r.Identifiers, &r.Text, &raw); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("storage: timestamp %q: %w", ts, err)
		}
		r.Session, r.Raw = session.String, raw.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of records per protocol.
func (d *DB) Count(ctx context.Context) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT protocol, COUNT(*) FROM messages GROUP BY protocol`)
	if err != nil {
		return nil, fmt.Errorf("storage: query: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			protocol string
			n        int
		)
		if err = rows.Scan(&protocol, &n); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		counts[protocol] = n
	}
	return counts, rows.Err()
}
