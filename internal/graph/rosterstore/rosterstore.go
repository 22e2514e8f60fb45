// Package rosterstore persists members only, as a roster text file. Connections
// are not stored: a network loaded from a roster starts with none.
package rosterstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/efebarandurmaz/socialgraph/internal/graph"
	"github.com/efebarandurmaz/socialgraph/internal/network"
	"github.com/efebarandurmaz/socialgraph/internal/roster"
)

// Store implements graph.Repository on a roster file.
type Store struct {
	path   string
	format roster.Format
	logger *zap.Logger
}

// New returns a store reading and writing path in the given format.
func New(path string, format roster.Format, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, format: format, logger: logger}
}

// Save writes the snapshot's members. Connections are dropped.
func (s *Store) Save(ctx context.Context, snap *network.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n := len(snap.Connections); n > 0 {
		s.logger.Debug("roster storage does not keep connections", zap.Int("dropped", n))
	}

	return roster.WriteFile(s.path, roster.FromMembers(snap.Members), s.format)
}

// Load reads the roster. Duplicate ids after the first are logged and
// skipped. A missing file is an empty network.
func (s *Store) Load(ctx context.Context) (*network.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &network.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	records, err := roster.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", s.path, err)
	}

	snap := &network.Snapshot{}
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if seen[rec.ID] {
			s.logger.Warn("skipping duplicate roster entry", zap.String("member", rec.ID))
			continue
		}
		seen[rec.ID] = true
		snap.Members = append(snap.Members, network.Member{ID: rec.ID, Attributes: rec.Attributes()})
	}
	return snap, nil
}

func (s *Store) Close(_ context.Context) error { return nil }

var _ graph.Repository = (*Store)(nil)
