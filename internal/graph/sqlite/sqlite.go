// Package sqlite stores snapshots in a SQLite database using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/efebarandurmaz/socialgraph/internal/graph"
	"github.com/efebarandurmaz/socialgraph/internal/network"
)

const schema = `
CREATE TABLE IF NOT EXISTS members (
  seq INTEGER PRIMARY KEY,
  id  TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS member_attributes (
  member_id TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
  key       TEXT NOT NULL,
  value     TEXT NOT NULL,
  PRIMARY KEY (member_id, key)
);
CREATE TABLE IF NOT EXISTS connections (
  seq INTEGER PRIMARY KEY,
  a   TEXT NOT NULL,
  b   TEXT NOT NULL
);
`

type SQLiteRepo struct{ db *sql.DB }

// NewSQLiteRepo opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return err
	}
	_, err := db.Exec(schema)
	return err
}

// Save replaces all stored rows with snap inside one transaction.
func (s *SQLiteRepo) Save(ctx context.Context, snap *network.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM connections`,
		`DELETE FROM member_attributes`,
		`DELETE FROM members`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	for i, m := range snap.Members {
		if _, err := tx.ExecContext(ctx, `INSERT INTO members (seq, id) VALUES (?, ?)`, i, m.ID); err != nil {
			return fmt.Errorf("insert member %s: %w", m.ID, err)
		}
		for k, v := range m.Attributes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO member_attributes (member_id, key, value) VALUES (?, ?, ?)`,
				m.ID, string(k), v); err != nil {
				return fmt.Errorf("insert attribute %s of %s: %w", k, m.ID, err)
			}
		}
	}

	for i, c := range snap.Connections {
		if _, err := tx.ExecContext(ctx, `INSERT INTO connections (seq, a, b) VALUES (?, ?, ?)`, i, c.A, c.B); err != nil {
			return fmt.Errorf("insert connection %s-%s: %w", c.A, c.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load reads members in seq order, then their attributes, then connections.
func (s *SQLiteRepo) Load(ctx context.Context) (*network.Snapshot, error) {
	snap := &network.Snapshot{}
	index := make(map[string]int)

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM members ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan member: %w", err)
		}
		index[id] = len(snap.Members)
		snap.Members = append(snap.Members, network.Member{ID: id})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT member_id, key, value FROM member_attributes`)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	for rows.Next() {
		var id, key, value string
		if err := rows.Scan(&id, &key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		if snap.Members[i].Attributes == nil {
			snap.Members[i].Attributes = network.Attributes{}
		}
		snap.Members[i].Attributes[network.AttributeKey(key)] = value
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT a, b FROM connections ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c network.Connection
		if err := rows.Scan(&c.A, &c.B); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		snap.Connections = append(snap.Connections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	return snap, nil
}

func (s *SQLiteRepo) Close(_ context.Context) error { return s.db.Close() }

var _ graph.Repository = (*SQLiteRepo)(nil)
