package export

import "github.com/efebarandurmaz/socialgraph/internal/network"

// Source is the read side of a social graph the exporters render. Each call
// is a separate read, so a Source must not be mutated while an export runs.
type Source interface {
	Members() []network.Member
	Neighbors(id string) []string
	MutualConnections(a, b string) []string
}

// Node is a member as it appears in an exported graph
type Node struct {
	ID         string            `json:"id"`
	Department string            `json:"department,omitempty"`
	Role       string            `json:"role,omitempty"`
	Degree     int               `json:"degree"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Edge is an undirected connection, emitted once with From < To
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the exported form of the whole network
type Graph struct {
	Name  string     `json:"name"`
	Nodes []Node     `json:"nodes"`
	Edges []Edge     `json:"edges"`
	Stats GraphStats `json:"stats"`
}

// GraphStats holds computed metrics about the network
type GraphStats struct {
	TotalMembers        int            `json:"total_members"`
	TotalConnections    int            `json:"total_connections"`
	IsolatedMembers     int            `json:"isolated_members"`
	MaxDegree           int            `json:"max_degree"`
	HotspotMember       string         `json:"hotspot_member,omitempty"` // member with most connections
	AverageDegree       float64        `json:"average_degree"`
	ConnectedComponents int            `json:"connected_components"`
	LargestComponent    int            `json:"largest_component"`
	DepartmentSizes     map[string]int `json:"department_sizes,omitempty"`
}

// Partition is one per-attribute-value graph produced by PartitionDOT.
type Partition struct {
	Value string `json:"value"`
	Name  string `json:"name"`
	DOT   string `json:"dot"`
}
