package export

import (
	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// DefaultGraphName is used when no graph name is configured.
const DefaultGraphName = "NetworkGraph"

// Analyze builds the exported graph from src. Nodes follow registration order;
// each undirected edge appears once, oriented so that From sorts before To.
func Analyze(src Source, name string) *Graph {
	if name == "" {
		name = DefaultGraphName
	}
	g := &Graph{Name: name}

	for _, m := range src.Members() {
		neighbors := src.Neighbors(m.ID)
		g.Nodes = append(g.Nodes, Node{
			ID:         m.ID,
			Department: m.Department(),
			Role:       m.Role(),
			Degree:     len(neighbors),
			Attributes: attributeMap(m),
		})
		for _, n := range neighbors {
			if m.ID < n {
				g.Edges = append(g.Edges, Edge{From: m.ID, To: n})
			}
		}
	}

	g.computeStats()
	return g
}

func attributeMap(m network.Member) map[string]string {
	if len(m.Attributes) == 0 {
		return nil
	}
	out := make(map[string]string, len(m.Attributes))
	for k, v := range m.Attributes {
		out[string(k)] = v
	}
	return out
}

// ComputeStats is Analyze without keeping the node and edge lists around.
func ComputeStats(src Source) GraphStats {
	return Analyze(src, "").Stats
}

// computeStats computes graph metrics
func (g *Graph) computeStats() {
	g.Stats.TotalMembers = len(g.Nodes)
	g.Stats.TotalConnections = len(g.Edges)
	g.Stats.DepartmentSizes = make(map[string]int)

	totalDegree := 0
	for _, n := range g.Nodes {
		totalDegree += n.Degree
		if n.Degree == 0 {
			g.Stats.IsolatedMembers++
		}
		// first member wins ties so the hotspot is stable
		if n.Degree > g.Stats.MaxDegree {
			g.Stats.MaxDegree = n.Degree
			g.Stats.HotspotMember = n.ID
		}
		if n.Department != "" {
			g.Stats.DepartmentSizes[n.Department]++
		}
	}
	if len(g.Nodes) > 0 {
		g.Stats.AverageDegree = float64(totalDegree) / float64(len(g.Nodes))
	}

	g.Stats.ConnectedComponents, g.Stats.LargestComponent = g.countComponents()
}

// countComponents counts connected components via union-find and reports the
// size of the largest one.
func (g *Graph) countComponents() (int, int) {
	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if parent[x] == "" {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		fa, fb := find(a), find(b)
		if fa != fb {
			parent[fa] = fb
		}
	}

	for _, n := range g.Nodes {
		find(n.ID)
	}
	for _, e := range g.Edges {
		union(e.From, e.To)
	}

	sizes := make(map[string]int)
	largest := 0
	for _, n := range g.Nodes {
		root := find(n.ID)
		sizes[root]++
		if sizes[root] > largest {
			largest = sizes[root]
		}
	}
	return len(sizes), largest
}
