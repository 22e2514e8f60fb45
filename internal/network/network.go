package network

import (
	"fmt"
	"sync"
)

// Limits caps the size of a Network. Zero values mean unlimited.
type Limits struct {
	MaxMembers              int `json:"max_members"`
	MaxConnectionsPerMember int `json:"max_connections_per_member"`
}

// Snapshot is a copy of a Network's state. Members are in registration order
// and connections in the order they were made, so replaying a snapshot
// rebuilds identical adjacency lists.
type Snapshot struct {
	Members     []Member     `json:"members"`
	Connections []Connection `json:"connections"`
}

// Network bundles a MemberStore and a ConnectionGraph with the query engines
// over them. All methods are safe for concurrent use: mutations take the write
// lock and each query holds the read lock for its whole traversal.
type Network struct {
	mu     sync.RWMutex
	limits Limits
	store  *MemberStore
	graph  *ConnectionGraph
	paths  *PathFinder
	recs   *RecommendationEngine
}

// New creates an empty Network.
func New(limits Limits) *Network {
	store := NewMemberStore(limits.MaxMembers)
	graph := NewConnectionGraph(store, limits.MaxConnectionsPerMember)
	return &Network{
		limits: limits,
		store:  store,
		graph:  graph,
		paths:  NewPathFinder(store, graph),
		recs:   NewRecommendationEngine(store, graph),
	}
}

// Restore builds a Network by replaying snap. It stops at the first member or
// connection the Network rejects.
func Restore(snap *Snapshot, limits Limits) (*Network, error) {
	n := New(limits)
	if snap == nil {
		return n, nil
	}
	for _, m := range snap.Members {
		if err := n.store.Register(m.ID, m.Attributes); err != nil {
			return nil, fmt.Errorf("restore member %s: %w", m.ID, err)
		}
	}
	for _, c := range snap.Connections {
		if err := n.graph.Connect(c.A, c.B); err != nil {
			return nil, fmt.Errorf("restore connection %s-%s: %w", c.A, c.B, err)
		}
	}
	return n, nil
}

// Clone returns a deep copy of s. A nil snapshot clones to an empty one.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{}
	if s == nil {
		return out
	}
	out.Members = make([]Member, 0, len(s.Members))
	for _, m := range s.Members {
		out.Members = append(out.Members, m.clone())
	}
	out.Connections = append([]Connection(nil), s.Connections...)
	return out
}

// Limits returns the limits the Network was created with.
func (n *Network) Limits() Limits { return n.limits }

// Snapshot copies the current state.
func (n *Network) Snapshot() *Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return &Snapshot{
		Members:     n.store.all(),
		Connections: n.graph.Edges(),
	}
}

// Register adds a member. See MemberStore.Register.
func (n *Network) Register(id string, attrs Attributes) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.Register(id, attrs)
}

// SetAttribute overwrites one attribute. See MemberStore.SetAttribute.
func (n *Network) SetAttribute(id string, key AttributeKey, value string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.SetAttribute(id, key, value)
}

// Connect links two members. See ConnectionGraph.Connect.
func (n *Network) Connect(a, b string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.graph.Connect(a, b)
}

// Member returns a copy of one member.
func (n *Network) Member(id string) (Member, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.store.Get(id)
}

// Members returns copies of all members in registration order.
func (n *Network) Members() []Member {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.store.all()
}

// MemberCount returns the number of registered members.
func (n *Network) MemberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.store.Len()
}

// ConnectionCount returns the number of connections.
func (n *Network) ConnectionCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.graph.EdgeCount()
}

// Neighbors returns id's connections in the order they were made.
func (n *Network) Neighbors(id string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.graph.Neighbors(id)
}

// AreConnected reports whether a and b are directly connected.
func (n *Network) AreConnected(a, b string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.graph.AreConnected(a, b)
}

// ShortestPath see PathFinder.ShortestPath.
func (n *Network) ShortestPath(start, end string) ([]string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.paths.ShortestPath(start, end)
}

// Distance see PathFinder.Distance.
func (n *Network) Distance(start, end string) (int, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.paths.Distance(start, end)
}

// MutualConnections see RecommendationEngine.MutualConnections.
func (n *Network) MutualConnections(a, b string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.recs.MutualConnections(a, b)
}

// Suggest see RecommendationEngine.Suggest.
func (n *Network) Suggest(id string) []Suggestion {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.recs.Suggest(id)
}

// MutualFiltered see RecommendationEngine.MutualFiltered.
func (n *Network) MutualFiltered(a, b string, key AttributeKey) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.recs.MutualFiltered(a, b, key)
}

// ListByAttribute see RecommendationEngine.ListByAttribute.
func (n *Network) ListByAttribute(key AttributeKey, value string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.recs.ListByAttribute(key, value)
}
