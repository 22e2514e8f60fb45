// Package graphtest holds behaviour tests shared by every graph.Repository
// backend.
package graphtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/socialgraph/internal/graph"
	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// SampleSnapshot returns a small network with unset attributes, an isolated
// member and connections recorded against registration order.
func SampleSnapshot() *network.Snapshot {
	return &network.Snapshot{
		Members: []network.Member{
			{ID: "carol", Attributes: network.Attributes{
				network.AttrDepartment: "CS",
				network.AttrRole:       "teacher",
				network.AttrLifeGoal:   "research",
			}},
			{ID: "alice", Attributes: network.Attributes{
				network.AttrDepartment: "CS",
				network.AttrRole:       "student",
				network.AttrInterest:   "",
			}},
			{ID: "bob", Attributes: network.Attributes{network.AttrRole: "student"}},
			{ID: "dave"},
		},
		Connections: []network.Connection{
			{A: "bob", B: "carol"},
			{A: "carol", B: "alice"},
			{A: "alice", B: "bob"},
		},
	}
}

// Run exercises repo against the Repository contract. newRepo must return a
// fresh, empty repository on every call.
func Run(t *testing.T, newRepo func(t *testing.T) graph.Repository) {
	t.Run("LoadEmpty", func(t *testing.T) {
		repo := newRepo(t)
		snap, err := repo.Load(context.Background())
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Empty(t, snap.Members)
		assert.Empty(t, snap.Connections)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		want := SampleSnapshot()

		require.NoError(t, repo.Save(ctx, want))
		got, err := repo.Load(ctx)
		require.NoError(t, err)
		AssertEqualSnapshots(t, want, got)
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Save(ctx, SampleSnapshot()))
		smaller := &network.Snapshot{
			Members: []network.Member{{ID: "erin", Attributes: network.Attributes{network.AttrRole: "admin"}}},
		}
		require.NoError(t, repo.Save(ctx, smaller))

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		AssertEqualSnapshots(t, smaller, got)
	})

	t.Run("RestoresAdjacencyOrder", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		original, err := network.Restore(SampleSnapshot(), network.Limits{})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, original.Snapshot()))

		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		restored, err := network.Restore(loaded, network.Limits{})
		require.NoError(t, err)

		for _, m := range original.Members() {
			assert.Equal(t, original.Neighbors(m.ID), restored.Neighbors(m.ID), "neighbors of %s", m.ID)
		}
	})
}

// AssertEqualSnapshots compares snapshots treating nil and empty attribute
// maps as equal.
func AssertEqualSnapshots(t *testing.T, want, got *network.Snapshot) {
	t.Helper()
	require.Len(t, got.Members, len(want.Members))
	for i := range want.Members {
		assert.Equal(t, want.Members[i].ID, got.Members[i].ID, "member %d", i)
		assert.Equal(t, normalize(want.Members[i].Attributes), normalize(got.Members[i].Attributes),
			"attributes of %s", want.Members[i].ID)
	}
	assert.Equal(t, connections(want), connections(got))
}

func normalize(attrs network.Attributes) network.Attributes {
	if len(attrs) == 0 {
		return network.Attributes{}
	}
	return attrs
}

func connections(s *network.Snapshot) []network.Connection {
	if len(s.Connections) == 0 {
		return []network.Connection{}
	}
	return s.Connections
}
