package graph

import (
	"context"

	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// Repository provides snapshot storage for a social network.
type Repository interface {
	// Save replaces the stored network with snap.
	Save(ctx context.Context, snap *network.Snapshot) error
	// Load retrieves the stored network. An empty store yields an empty
	// snapshot, not an error.
	Load(ctx context.Context) (*network.Snapshot, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
