package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
	"github.com/hazyhaar/menuwatch/dbopen"
)

// Schema holds one row per tracked item. Only the latest flag is kept.
const Schema = `CREATE TABLE IF NOT EXISTS availability_state (
	item            TEXT PRIMARY KEY,
	was_unavailable INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
)`

// SQLite stores the flag in the availability_state table, keyed by item.
type SQLite struct {
	db   *sql.DB
	item string
	path string
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path, item string) (*SQLite, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	return &SQLite{db: db, item: item, path: path}, nil
}

// NewSQLite wraps an open database. The caller applies Schema.
func NewSQLite(db *sql.DB, item string) *SQLite {
	return &SQLite{db: db, item: item, path: "db"}
}

func (s *SQLite) Name() string { return "sqlite:" + s.path }

func (s *SQLite) Load(ctx context.Context) (availability.State, error) {
	var v int
	err := s.db.QueryRowContext(ctx,
		`SELECT was_unavailable FROM availability_state WHERE item = ?`, s.item).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return availability.State{}, nil
	}
	if err != nil {
		return availability.State{}, fmt.Errorf("state: query: %w", err)
	}
	switch v {
	case 0:
		return availability.State{}, nil
	case 1:
		return availability.State{WasUnavailable: true}, nil
	}
	return availability.State{}, fmt.Errorf("%w: was_unavailable=%d", ErrCorrupt, v)
}

func (s *SQLite) Save(ctx context.Context, st availability.State) error {
	v := 0
	if st.WasUnavailable {
		v = 1
	}
	_, err := dbopen.Exec(ctx, s.db, `
		INSERT INTO availability_state (item, was_unavailable, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(item) DO UPDATE SET
			was_unavailable = excluded.was_unavailable,
			updated_at      = excluded.updated_at`,
		s.item, v, time.Now().Unix())
	if err != nil {
		return &PersistError{Backend: s.Name(), Cause: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }
