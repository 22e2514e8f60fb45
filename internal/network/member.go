// Package network is the in-memory social graph: members with profile
// attributes, undirected connections between them, and the traversal and
// recommendation queries over that graph. It performs no I/O.
package network

import (
	"maps"
	"strings"
)

// AttributeKey names a profile attribute. The well-known keys below are the
// ones the roster format and exporters understand; any other key may still be
// stored on a member.
type AttributeKey string

const (
	AttrDepartment       AttributeKey = "department"
	AttrRole             AttributeKey = "role"
	AttrInterest         AttributeKey = "interest"
	AttrFavoriteActivity AttributeKey = "favoriteActivity"
	AttrLifeGoal         AttributeKey = "lifeGoal"
)

// KnownAttributes lists the well-known keys in display order.
var KnownAttributes = []AttributeKey{
	AttrDepartment,
	AttrRole,
	AttrInterest,
	AttrFavoriteActivity,
	AttrLifeGoal,
}

var attributeAliases = map[string]AttributeKey{
	"department":       AttrDepartment,
	"dept":             AttrDepartment,
	"role":             AttrRole,
	"interest":         AttrInterest,
	"favoriteactivity": AttrFavoriteActivity,
	"activity":         AttrFavoriteActivity,
	"game":             AttrFavoriteActivity,
	"lifegoal":         AttrLifeGoal,
	"goal":             AttrLifeGoal,
	"aim":              AttrLifeGoal,
}

// ParseAttributeKey resolves user input such as "aim" or "game" to a
// well-known key. The second result is false for names it does not know.
func ParseAttributeKey(s string) (AttributeKey, bool) {
	k, ok := attributeAliases[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

// Attributes is a set of profile values. A key missing from the map is unset,
// which is not the same as a key set to "".
type Attributes map[AttributeKey]string

// Member is a registered participant.
type Member struct {
	ID         string     `json:"id"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Attribute returns the value for key and whether it is set.
func (m Member) Attribute(key AttributeKey) (string, bool) {
	v, ok := m.Attributes[key]
	return v, ok
}

// Department is shorthand for the department attribute, "" when unset.
func (m Member) Department() string { return m.Attributes[AttrDepartment] }

// Role is shorthand for the role attribute, "" when unset.
func (m Member) Role() string { return m.Attributes[AttrRole] }

func (m Member) clone() Member {
	return Member{ID: m.ID, Attributes: maps.Clone(m.Attributes)}
}
