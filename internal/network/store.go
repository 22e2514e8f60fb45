package network

import (
	"iter"
	"maps"
	"strings"
)

// MemberStore owns the registered members. It is not safe for concurrent use;
// Network serializes access to it.
type MemberStore struct {
	members    map[string]*Member
	order      []string
	maxMembers int
}

// NewMemberStore creates an empty store. maxMembers <= 0 means unlimited.
func NewMemberStore(maxMembers int) *MemberStore {
	return &MemberStore{
		members:    make(map[string]*Member),
		maxMembers: maxMembers,
	}
}

// Register adds a new member. A second registration of the same id fails
// with ErrAlreadyExists and leaves the first record untouched.
func (s *MemberStore) Register(id string, attrs Attributes) error {
	if id == "" || strings.ContainsAny(id, " \t\r\n") {
		return newError(KindInvalidMember, id, "")
	}
	if _, ok := s.members[id]; ok {
		return newError(KindAlreadyExists, id, "")
	}
	if s.maxMembers > 0 && len(s.order) >= s.maxMembers {
		return newError(KindCapacityExceeded, "", "")
	}

	m := &Member{ID: id, Attributes: make(Attributes, len(attrs))}
	maps.Copy(m.Attributes, attrs)
	s.members[id] = m
	s.order = append(s.order, id)
	return nil
}

// SetAttribute overwrites one attribute of an existing member.
func (s *MemberStore) SetAttribute(id string, key AttributeKey, value string) error {
	m, ok := s.members[id]
	if !ok {
		return newError(KindNotFound, id, "")
	}
	m.Attributes[key] = value
	return nil
}

// Get returns a copy of the member record.
func (s *MemberStore) Get(id string) (Member, bool) {
	m, ok := s.members[id]
	if !ok {
		return Member{}, false
	}
	return m.clone(), true
}

// Exists reports whether id is registered.
func (s *MemberStore) Exists(id string) bool {
	_, ok := s.members[id]
	return ok
}

// AllIDs yields member ids in registration order. The sequence can be ranged
// over any number of times.
func (s *MemberStore) AllIDs() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, id := range s.order {
			if !yield(id) {
				return
			}
		}
	}
}

// Len returns the number of registered members.
func (s *MemberStore) Len() int { return len(s.order) }

// all returns copies of every member in registration order.
func (s *MemberStore) all() []Member {
	out := make([]Member, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.members[id].clone())
	}
	return out
}
