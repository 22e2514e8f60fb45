package network

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build registers ids in order and connects each pair in order.
func build(t *testing.T, ids []string, edges [][2]string) *Network {
	t.Helper()
	n := New(Limits{})
	for _, id := range ids {
		require.NoError(t, n.Register(id, nil))
	}
	for _, e := range edges {
		require.NoError(t, n.Connect(e[0], e[1]))
	}
	return n
}

func TestRegister_Duplicate(t *testing.T) {
	n := New(Limits{})
	require.NoError(t, n.Register("alice", Attributes{AttrDepartment: "CS"}))

	err := n.Register("alice", Attributes{AttrDepartment: "Math", AttrRole: "teacher"})
	require.ErrorIs(t, err, ErrAlreadyExists)

	var nerr *Error
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "alice", nerr.ID)

	m, ok := n.Member("alice")
	require.True(t, ok)
	assert.Equal(t, "CS", m.Department())
	_, roleSet := m.Attribute(AttrRole)
	assert.False(t, roleSet, "second registration must not partially overwrite")
}

func TestRegister_InvalidID(t *testing.T) {
	n := New(Limits{})
	for _, id := range []string{"", "two words", "tab\tid"} {
		assert.ErrorIs(t, n.Register(id, nil), ErrInvalidMember, "id %q", id)
	}
	assert.Equal(t, 0, n.MemberCount())
}

func TestRegister_CaseSensitive(t *testing.T) {
	n := New(Limits{})
	require.NoError(t, n.Register("Alice", nil))
	require.NoError(t, n.Register("alice", nil))
	assert.Equal(t, 2, n.MemberCount())
}

func TestRegister_MemberLimit(t *testing.T) {
	n := New(Limits{MaxMembers: 2})
	require.NoError(t, n.Register("a", nil))
	require.NoError(t, n.Register("b", nil))
	assert.ErrorIs(t, n.Register("c", nil), ErrCapacityExceeded)
}

func TestAttributes_UnsetVersusEmpty(t *testing.T) {
	n := New(Limits{})
	require.NoError(t, n.Register("a", Attributes{AttrInterest: ""}))

	m, _ := n.Member("a")
	v, ok := m.Attribute(AttrInterest)
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = m.Attribute(AttrLifeGoal)
	assert.False(t, ok)
}

func TestSetAttribute(t *testing.T) {
	n := New(Limits{})
	require.NoError(t, n.Register("a", Attributes{AttrDepartment: "CS"}))

	require.NoError(t, n.SetAttribute("a", AttrLifeGoal, "Engineer"))
	require.NoError(t, n.SetAttribute("a", AttrDepartment, "EE"))

	m, _ := n.Member("a")
	assert.Equal(t, "EE", m.Department())
	goal, _ := m.Attribute(AttrLifeGoal)
	assert.Equal(t, "Engineer", goal)

	assert.ErrorIs(t, n.SetAttribute("ghost", AttrRole, "x"), ErrNotFound)
}

func TestMember_ReturnsCopy(t *testing.T) {
	n := New(Limits{})
	require.NoError(t, n.Register("a", Attributes{AttrRole: "student"}))

	m, _ := n.Member("a")
	m.Attributes[AttrRole] = "mutated"
	m.ID = "b"

	again, _ := n.Member("a")
	assert.Equal(t, "student", again.Role())
	assert.Equal(t, "a", again.ID)
}

func TestAllIDs_RegistrationOrderAndRestartable(t *testing.T) {
	s := NewMemberStore(0)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Register(id, nil))
	}

	for range 2 {
		var got []string
		for id := range s.AllIDs() {
			got = append(got, id)
		}
		assert.Equal(t, []string{"c", "a", "b"}, got)
	}

	// early stop
	var first []string
	for id := range s.AllIDs() {
		first = append(first, id)
		break
	}
	assert.Equal(t, []string{"c"}, first)
}

func TestConnect_SelfLoop(t *testing.T) {
	n := build(t, []string{"a", "b"}, nil)
	for _, id := range []string{"a", "b"} {
		assert.ErrorIs(t, n.Connect(id, id), ErrSelfLoop)
	}
	assert.Empty(t, n.Neighbors("a"))
}

func TestConnect_Symmetric(t *testing.T) {
	n := build(t, []string{"a", "b"}, nil)
	require.NoError(t, n.Connect("a", "b"))

	assert.True(t, n.AreConnected("a", "b"))
	assert.True(t, n.AreConnected("b", "a"))
	assert.Equal(t, []string{"b"}, n.Neighbors("a"))
	assert.Equal(t, []string{"a"}, n.Neighbors("b"))

	assert.ErrorIs(t, n.Connect("a", "b"), ErrAlreadyConnected)
	assert.ErrorIs(t, n.Connect("b", "a"), ErrAlreadyConnected)
	assert.Equal(t, 1, n.ConnectionCount())
}

func TestConnect_UnknownMember(t *testing.T) {
	n := build(t, []string{"a"}, nil)

	err := n.Connect("a", "ghost")
	assert.ErrorIs(t, err, ErrUnknownMember)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrSelfLoop)

	assert.ErrorIs(t, n.Connect("ghost", "a"), ErrUnknownMember)
	assert.Empty(t, n.Neighbors("a"), "failed connect must not touch either side")
}

func TestConnect_ConnectionLimit(t *testing.T) {
	n := New(Limits{MaxConnectionsPerMember: 1})
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, n.Register(id, nil))
	}
	require.NoError(t, n.Connect("a", "b"))
	assert.ErrorIs(t, n.Connect("c", "a"), ErrCapacityExceeded)
	assert.Empty(t, n.Neighbors("c"))
}

func TestNeighbors_InsertionOrder(t *testing.T) {
	n := build(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "d"}, {"c", "a"}, {"a", "b"}})
	assert.Equal(t, []string{"d", "c", "b"}, n.Neighbors("a"))
	assert.Empty(t, n.Neighbors("unknown"))
}

func TestShortestPath(t *testing.T) {
	n := build(t,
		[]string{"A", "B", "C", "D", "E"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}},
	)

	tests := []struct {
		name      string
		from, to  string
		want      []string
		reachable bool
	}{
		{"path graph", "A", "D", []string{"A", "B", "C", "D"}, true},
		{"reverse", "D", "A", []string{"D", "C", "B", "A"}, true},
		{"same node", "A", "A", []string{"A"}, true},
		{"isolated", "A", "E", nil, false},
		{"isolated self", "E", "E", []string{"E"}, true},
		{"unknown start", "Z", "A", nil, false},
		{"unknown end", "A", "Z", nil, false},
		{"unknown same", "Z", "Z", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.ShortestPath(tt.from, tt.to)
			assert.Equal(t, tt.reachable, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShortestPath_TieBreakByInsertionOrder(t *testing.T) {
	// Two equal paths A-B-D and A-C-D; B was connected to A first.
	n := build(t,
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"A", "C"}, {"C", "D"}, {"B", "D"}},
	)
	path, ok := n.ShortestPath("A", "D")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "D"}, path)

	m := build(t,
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "C"}, {"A", "B"}, {"C", "D"}, {"B", "D"}},
	)
	path, ok = m.ShortestPath("A", "D")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "C", "D"}, path)
}

func TestShortestPath_Cycle(t *testing.T) {
	n := build(t,
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"c", "d"}, {"d", "e"}, {"e", "a"}},
	)
	path, ok := n.ShortestPath("b", "e")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "e"}, path)

	d, ok := n.Distance("b", "e")
	require.True(t, ok)
	assert.Equal(t, 2, d)
}

func TestMutualConnections(t *testing.T) {
	n := build(t,
		[]string{"a", "b", "x", "y", "z"},
		[][2]string{{"a", "y"}, {"a", "x"}, {"a", "z"}, {"b", "x"}, {"b", "y"}},
	)

	assert.Equal(t, []string{"y", "x"}, n.MutualConnections("a", "b"))
	assert.ElementsMatch(t, n.MutualConnections("a", "b"), n.MutualConnections("b", "a"))
	assert.Empty(t, n.MutualConnections("a", "ghost"))
	assert.Empty(t, n.MutualConnections("ghost", "a"))
}

func TestSuggest(t *testing.T) {
	n := build(t,
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}},
	)

	got := n.Suggest("A")
	require.Len(t, got, 1)
	assert.Equal(t, Suggestion{ID: "D", SharedCount: 2}, got[0])
	for _, s := range got {
		assert.NotContains(t, []string{"A", "B", "C"}, s.ID)
	}
}

func TestSuggest_Ordering(t *testing.T) {
	// u knows p, q, r. Candidates: x via p,q,r (3); y via p (1); w via q (1).
	n := build(t,
		[]string{"u", "p", "q", "r", "x", "y", "w"},
		[][2]string{
			{"u", "p"}, {"u", "q"}, {"u", "r"},
			{"p", "y"}, {"p", "x"}, {"q", "x"}, {"r", "x"}, {"q", "w"},
		},
	)
	assert.Equal(t, []Suggestion{
		{ID: "x", SharedCount: 3},
		{ID: "w", SharedCount: 1},
		{ID: "y", SharedCount: 1},
	}, n.Suggest("u"))

	assert.Empty(t, n.Suggest("ghost"))
	assert.Empty(t, build(t, []string{"solo"}, nil).Suggest("solo"))
}

func TestMutualFiltered(t *testing.T) {
	n := New(Limits{})
	require.NoError(t, n.Register("A", Attributes{AttrDepartment: "CS"}))
	require.NoError(t, n.Register("B", Attributes{AttrDepartment: "Math"}))
	require.NoError(t, n.Register("X", Attributes{AttrDepartment: "CS"}))
	require.NoError(t, n.Register("Y", Attributes{AttrDepartment: "Math"}))
	require.NoError(t, n.Register("Z", nil))
	for _, e := range [][2]string{{"A", "X"}, {"A", "Y"}, {"A", "Z"}, {"B", "X"}, {"B", "Y"}, {"B", "Z"}} {
		require.NoError(t, n.Connect(e[0], e[1]))
	}

	assert.Equal(t, []string{"X"}, n.MutualFiltered("A", "B", AttrDepartment))
	// anchored to the first member: B's department picks Y
	assert.Equal(t, []string{"Y"}, n.MutualFiltered("B", "A", AttrDepartment))

	assert.Empty(t, n.MutualFiltered("A", "B", AttrInterest), "unset on anchor")
	assert.Empty(t, n.MutualFiltered("A", "B", AttributeKey("shoeSize")), "unknown key")
	assert.Empty(t, n.MutualFiltered("ghost", "B", AttrDepartment))
	assert.Empty(t, n.MutualFiltered("A", "ghost", AttrDepartment))
}

func TestListByAttribute(t *testing.T) {
	n := New(Limits{})
	require.NoError(t, n.Register("c", Attributes{AttrLifeGoal: "Doctor"}))
	require.NoError(t, n.Register("a", Attributes{AttrLifeGoal: "Engineer"}))
	require.NoError(t, n.Register("b", Attributes{AttrLifeGoal: "Doctor"}))
	require.NoError(t, n.Register("d", nil))

	assert.Equal(t, []string{"c", "b"}, n.ListByAttribute(AttrLifeGoal, "Doctor"))
	assert.Empty(t, n.ListByAttribute(AttrLifeGoal, "Pilot"))
	assert.Empty(t, n.ListByAttribute(AttrLifeGoal, ""), "unset never equals empty")
}

func TestQueriesDoNotMutate(t *testing.T) {
	n := build(t,
		[]string{"A", "B", "C", "D", "E"},
		[][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}},
	)
	before := n.Snapshot()

	n.ShortestPath("A", "D")
	n.ShortestPath("A", "E")
	n.MutualConnections("B", "C")
	n.Suggest("A")
	n.MutualFiltered("A", "D", AttrDepartment)
	n.ListByAttribute(AttrRole, "x")

	assert.Equal(t, before, n.Snapshot())
}

func TestSnapshotRestore_PreservesAdjacencyOrder(t *testing.T) {
	n := New(Limits{})
	require.NoError(t, n.Register("a", Attributes{AttrDepartment: "CS", AttrRole: "student"}))
	require.NoError(t, n.Register("b", Attributes{AttrDepartment: "EE"}))
	require.NoError(t, n.Register("c", nil))
	require.NoError(t, n.Register("d", nil))
	for _, e := range [][2]string{{"c", "a"}, {"a", "d"}, {"b", "a"}, {"d", "c"}} {
		require.NoError(t, n.Connect(e[0], e[1]))
	}

	restored, err := Restore(n.Snapshot(), Limits{})
	require.NoError(t, err)

	assert.Equal(t, n.Members(), restored.Members())
	for _, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, n.Neighbors(id), restored.Neighbors(id), "neighbors of %s", id)
	}
}

func TestRestore_RejectsInvalidSnapshot(t *testing.T) {
	_, err := Restore(&Snapshot{
		Members:     []Member{{ID: "a"}, {ID: "a"}},
		Connections: nil,
	}, Limits{})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = Restore(&Snapshot{
		Members:     []Member{{ID: "a"}},
		Connections: []Connection{{A: "a", B: "b"}},
	}, Limits{})
	assert.ErrorIs(t, err, ErrUnknownMember)

	n, err := Restore(nil, Limits{})
	require.NoError(t, err)
	assert.Equal(t, 0, n.MemberCount())
}

func TestParseAttributeKey(t *testing.T) {
	tests := map[string]AttributeKey{
		"department": AttrDepartment,
		"Dept":       AttrDepartment,
		"aim":        AttrLifeGoal,
		"game":       AttrFavoriteActivity,
		" interest ": AttrInterest,
		"lifeGoal":   AttrLifeGoal,
	}
	for in, want := range tests {
		got, ok := ParseAttributeKey(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseAttributeKey("height")
	assert.False(t, ok)
}

func TestError_Messages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{newError(KindAlreadyExists, "a", ""), "a is already registered"},
		{newError(KindSelfLoop, "a", ""), "a cannot connect with themselves"},
		{newError(KindAlreadyConnected, "a", "b"), "a and b are already connected"},
		{newError(KindCapacityExceeded, "", ""), "member limit reached"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}

	wrapped := fmt.Errorf("connect: %w", newError(KindSelfLoop, "a", ""))
	assert.ErrorIs(t, wrapped, ErrSelfLoop)
}

func TestNetwork_ConcurrentReaders(t *testing.T) {
	n := build(t,
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}},
	)
	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 100 {
				n.ShortestPath("A", "D")
				n.Suggest("A")
			}
		}()
	}
	for i := 0; i < 10; i++ {
		_ = n.Register(fmt.Sprintf("m%d", i), nil)
	}
	for range 8 {
		<-done
	}
	assert.Equal(t, 14, n.MemberCount())
}
