package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/firewatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// sqlitePragmas are applied by the driver to every pooled connection.
// busy_timeout comes first so the journal_mode switch waits on a busy file.
// _txlock=immediate takes the write lock at BEGIN, under the busy timeout.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// WAL lets readers keep the previous snapshot while ReplaceAll is in flight.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "sqlite: ping %s", dsn)
	}
	return &SQLiteStore{db: db}, nil
}

// sqliteDSN appends the connection pragmas to dsn.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + sqlitePragmas
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS fires (
	id         TEXT PRIMARY KEY,
	latitude   REAL NOT NULL,
	longitude  REAL NOT NULL,
	brightness REAL NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 0,
	acq_date   TEXT NOT NULL,
	satellite  TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fires_brightness ON fires(brightness DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceAll(ctx context.Context, records []model.FireRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: replace: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM fires`); err != nil {
		return 0, eris.Wrap(err, "sqlite: replace: delete snapshot")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO fires
			(id, latitude, longitude, brightness, confidence, acq_date, satellite, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: replace: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range records {
		updatedAt := r.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now()
		}
		_, err := stmt.ExecContext(ctx,
			r.ID, r.Latitude, r.Longitude, r.Brightness, r.Confidence,
			r.AcqDate, r.Satellite, updatedAt.UTC(),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: replace: insert %s", r.ID)
		}
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM fires`).Scan(&stored); err != nil {
		return 0, eris.Wrap(err, "sqlite: replace: count")
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: replace: commit")
	}
	return stored, nil
}

func (s *SQLiteStore) TopByIntensity(ctx context.Context, limit int) ([]model.FireRecord, error) {
	query := `SELECT id, latitude, longitude, brightness, confidence, acq_date, satellite, updated_at
		FROM fires ORDER BY brightness DESC, rowid ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top by intensity")
	}
	defer rows.Close()

	var records []model.FireRecord
	for rows.Next() {
		var r model.FireRecord
		if err := rows.Scan(&r.ID, &r.Latitude, &r.Longitude, &r.Brightness, &r.Confidence,
			&r.AcqDate, &r.Satellite, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan fire")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: top by intensity iterate")
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fires`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count fires")
	}
	return n, nil
}

func (s *SQLiteStore) AllPoints(ctx context.Context) ([]model.FirePoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT latitude, longitude, brightness, confidence FROM fires ORDER BY rowid`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: all points")
	}
	defer rows.Close()

	var points []model.FirePoint
	for rows.Next() {
		var p model.FirePoint
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.Brightness, &p.Confidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan point")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "sqlite: all points iterate")
}
