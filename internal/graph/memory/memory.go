// Package memory keeps snapshots in process memory. Nothing survives a
// restart; it backs interactive sessions that should not touch disk and tests.
package memory

import (
	"context"
	"sync"

	"github.com/efebarandurmaz/socialgraph/internal/graph"
	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// Repository implements graph.Repository on an in-memory snapshot.
type Repository struct {
	mu   sync.RWMutex
	snap *network.Snapshot
}

// New returns an empty repository.
func New() *Repository {
	return &Repository{}
}

// Save stores a copy of snap, replacing the previous one.
func (r *Repository) Save(_ context.Context, snap *network.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = snap.Clone()
	return nil
}

// Load returns a copy of the last saved snapshot, or an empty one before the
// first Save.
func (r *Repository) Load(_ context.Context) (*network.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap.Clone(), nil
}

// Close is a no-op.
func (r *Repository) Close(_ context.Context) error { return nil }

var _ graph.Repository = (*Repository)(nil)
