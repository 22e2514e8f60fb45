// Package file stores snapshots as an indented JSON document on local disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/efebarandurmaz/socialgraph/internal/graph"
	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// formatVersion is bumped when the document layout changes.
const formatVersion = 1

type document struct {
	Version int               `json:"version"`
	SavedAt time.Time         `json:"saved_at"`
	Network *network.Snapshot `json:"network"`
}

// Store implements graph.Repository on a single JSON file.
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore opens a store at path, creating the parent directory. The file
// itself is created on the first Save.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("snapshot file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Save writes snap to a temporary file next to the target and renames it into
// place. Readers see either the old snapshot or the new one.
func (s *Store) Save(ctx context.Context, snap *network.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(document{
		Version: formatVersion,
		SavedAt: time.Now().UTC(),
		Network: snap,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot file. A missing file is an empty network.
func (s *Store) Load(ctx context.Context) (*network.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &network.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", s.path, err)
	}
	if doc.Version > formatVersion {
		return nil, fmt.Errorf("snapshot %s has version %d, newest supported is %d", s.path, doc.Version, formatVersion)
	}
	if doc.Network == nil {
		return &network.Snapshot{}, nil
	}
	return doc.Network, nil
}

func (s *Store) Close(_ context.Context) error { return nil }

var _ graph.Repository = (*Store)(nil)
