package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/docvault/internal/domain/project"
	_ "modernc.org/sqlite"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS snapshot (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    doc TEXT NOT NULL,
    saved_at TIMESTAMP NOT NULL
);
`

// SQLiteGateway stores the snapshot document in a single-row sqlite table.
// Saves are still whole-document overwrites; sqlite only supplies the
// durable medium.
type SQLiteGateway struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and if needed initializes) the snapshot database.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteGateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing snapshot db: %w", err)
	}
	return &SQLiteGateway{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}

// Save overwrites the stored document with the full store contents.
func (g *SQLiteGateway) Save(ctx context.Context, projects []*project.Project) error {
	data, err := encodeDocument(projects)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = g.db.ExecContext(ctx, `
		INSERT INTO snapshot (id, doc, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, saved_at = excluded.saved_at
	`, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load reads the stored document. A missing row or unreadable document
// yields an empty store.
func (g *SQLiteGateway) Load(ctx context.Context) ([]*project.Project, error) {
	var doc string
	err := g.db.QueryRowContext(ctx, `SELECT doc FROM snapshot WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		g.logger.Warn("snapshot row unreadable, starting empty", "error", err)
		return nil, nil
	}
	return decodeDocument([]byte(doc), g.logger), nil
}
