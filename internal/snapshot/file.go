package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/docvault/internal/domain/project"
)

// FileGateway stores the snapshot document as a JSON file, written through
// a temp file and rename so a crash mid-write leaves the previous document
// intact.
type FileGateway struct {
	path   string
	logger *slog.Logger
}

// NewFileGateway creates a gateway writing to path.
func NewFileGateway(path string, logger *slog.Logger) *FileGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileGateway{path: path, logger: logger}
}

// Save overwrites the snapshot file with the full store contents.
func (g *FileGateway) Save(ctx context.Context, projects []*project.Project) error {
	data, err := encodeDocument(projects)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("preparing snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), g.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot file. A missing or unreadable file yields an
// empty store, never an error surfaced to users.
func (g *FileGateway) Load(ctx context.Context) ([]*project.Project, error) {
	data, err := os.ReadFile(g.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		g.logger.Warn("snapshot file unreadable, starting empty", "path", g.path, "error", err)
		return nil, nil
	}
	return decodeDocument(data, g.logger), nil
}
