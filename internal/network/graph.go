package network

import "slices"

// MemberLookup is what ConnectionGraph needs from the member store.
type MemberLookup interface {
	Exists(id string) bool
}

// Connection is an unordered pair of member ids, kept in the order it was
// first connected.
type Connection struct {
	A string `json:"a"`
	B string `json:"b"`
}

// ConnectionGraph owns the undirected adjacency relation. Members are
// referenced by id only. It is not safe for concurrent use.
type ConnectionGraph struct {
	members        MemberLookup
	adjacency      map[string][]string
	edges          []Connection
	maxConnections int
}

// NewConnectionGraph creates an empty graph validating endpoints against
// members. maxConnections <= 0 means no per-member limit.
func NewConnectionGraph(members MemberLookup, maxConnections int) *ConnectionGraph {
	return &ConnectionGraph{
		members:        members,
		adjacency:      make(map[string][]string),
		maxConnections: maxConnections,
	}
}

// Connect records the pair (a, b). Every check runs before either adjacency
// list is touched, so a failed Connect changes nothing.
func (g *ConnectionGraph) Connect(a, b string) error {
	if a == b {
		return newError(KindSelfLoop, a, "")
	}
	for _, id := range []string{a, b} {
		if !g.members.Exists(id) {
			return newError(KindUnknownMember, id, "")
		}
	}
	if g.AreConnected(a, b) {
		return newError(KindAlreadyConnected, a, b)
	}
	if g.maxConnections > 0 {
		for _, id := range []string{a, b} {
			if len(g.adjacency[id]) >= g.maxConnections {
				return newError(KindCapacityExceeded, id, "")
			}
		}
	}

	g.adjacency[a] = append(g.adjacency[a], b)
	g.adjacency[b] = append(g.adjacency[b], a)
	g.edges = append(g.edges, Connection{A: a, B: b})
	return nil
}

// Neighbors returns a copy of id's adjacency in insertion order. Unknown ids
// and ids without connections both yield an empty slice.
func (g *ConnectionGraph) Neighbors(id string) []string {
	return slices.Clone(g.adjacency[id])
}

// AreConnected reports whether b is in a's adjacency.
func (g *ConnectionGraph) AreConnected(a, b string) bool {
	return slices.Contains(g.adjacency[a], b)
}

// Degree returns the number of connections of id.
func (g *ConnectionGraph) Degree(id string) int { return len(g.adjacency[id]) }

// Edges returns every connection in insertion order.
func (g *ConnectionGraph) Edges() []Connection { return slices.Clone(g.edges) }

// EdgeCount returns the number of connections.
func (g *ConnectionGraph) EdgeCount() int { return len(g.edges) }

// neighbors is the non-copying variant used by traversals that hold the lock.
func (g *ConnectionGraph) neighbors(id string) []string { return g.adjacency[id] }
