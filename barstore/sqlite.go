package barstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/orb/market"
	"github.com/rustyeddy/orb/orb"
)

// Schema is the layout the SQLite bar store reads. Timestamps are unix
// seconds; days are YYYY-MM-DD.
const Schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	ts INTEGER NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (symbol, ts)
);

CREATE TABLE IF NOT EXISTS opening_ranges (
	symbol TEXT NOT NULL,
	session TEXT NOT NULL,
	day TEXT NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	PRIMARY KEY (symbol, session, day)
);
`

// SQLite serves bars and precomputed opening ranges from a SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens path read-only. The schema must already exist.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open bar store %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

// CreateSQLite opens path read-write and ensures the schema. It is the
// loading side used by "orb data import" and tests.
func CreateSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Bars(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND ts >= ? AND ts < ?
		ORDER BY ts ASC`,
		symbol, from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var out []market.Bar
	for rows.Next() {
		var (
			ts int64
			b  market.Bar
		)
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Time = time.Unix(ts, 0).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

// Range returns a stored opening range; ok is false when none is stored.
func (s *SQLite) Range(ctx context.Context, symbol, session string, day time.Time) (orb.OpeningRange, bool, error) {
	r := orb.OpeningRange{Date: day, Session: session}
	err := s.db.QueryRowContext(ctx, `
		SELECT high, low FROM opening_ranges
		WHERE symbol = ? AND session = ? AND day = ?`,
		symbol, session, day.Format("2006-01-02"),
	).Scan(&r.High, &r.Low)
	if errors.Is(err, sql.ErrNoRows) {
		return orb.OpeningRange{}, false, nil
	}
	if err != nil {
		return orb.OpeningRange{}, false, fmt.Errorf("query opening range: %w", err)
	}
	return r, true, nil
}

// InsertBars upserts bars for symbol in one transaction.
func (s *SQLite) InsertBars(ctx context.Context, symbol string, bars []market.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("insert bar %s: %w", b.Time.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) InsertRange(ctx context.Context, symbol string, r orb.OpeningRange) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO opening_ranges (symbol, session, day, high, low)
		VALUES (?, ?, ?, ?, ?)`,
		symbol, r.Session, r.Date.Format("2006-01-02"), r.High, r.Low,
	)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
