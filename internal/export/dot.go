package export

import (
	"fmt"
	"strings"

	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// DOT renders the whole network as an undirected Graphviz graph. Every edge is
// written once, as "a" -- "b" with a sorting before b. Members without any
// connection are declared as bare nodes so they still show up.
func DOT(src Source, name string) string {
	g := Analyze(src, name)

	var b strings.Builder
	fmt.Fprintf(&b, "graph %s {\n", sanitizeDOTID(g.Name))
	for _, n := range g.Nodes {
		if n.Degree == 0 {
			fmt.Fprintf(&b, "  %s;\n", quote(n.ID))
		}
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s -- %s;\n", quote(e.From), quote(e.To))
	}
	b.WriteString("}\n")
	return b.String()
}

// PartitionDOT renders one graph per distinct value of key, in order of first
// appearance. A partition holds the members whose key equals the value and only
// the connections between them. Members with key unset are left out.
func PartitionDOT(src Source, key network.AttributeKey) []Partition {
	members := src.Members()

	var values []string
	byValue := make(map[string][]network.Member)
	for _, m := range members {
		v, ok := m.Attribute(key)
		if !ok {
			continue
		}
		if _, seen := byValue[v]; !seen {
			values = append(values, v)
		}
		byValue[v] = append(byValue[v], m)
	}

	partitions := make([]Partition, 0, len(values))
	for _, v := range values {
		inPartition := make(map[string]bool, len(byValue[v]))
		for _, m := range byValue[v] {
			inPartition[m.ID] = true
		}

		name := v + "_Network"
		var b strings.Builder
		fmt.Fprintf(&b, "graph %s {\n", quote(name))
		b.WriteString("  node [shape=ellipse, style=filled, fillcolor=lightyellow];\n")
		for _, m := range byValue[v] {
			fmt.Fprintf(&b, "  %s [label=%s];\n", quote(m.ID), quote(nodeLabel(m)))
		}
		for _, m := range byValue[v] {
			for _, n := range src.Neighbors(m.ID) {
				if inPartition[n] && m.ID < n {
					fmt.Fprintf(&b, "  %s -- %s;\n", quote(m.ID), quote(n))
				}
			}
		}
		b.WriteString("}\n")

		partitions = append(partitions, Partition{Value: v, Name: name, DOT: b.String()})
	}
	return partitions
}

// HighlightDOT renders the whole network with the mutual connections of a and
// b highlighted: each mutual member is filled green and its edges to a and b
// are drawn green and thick. Every other edge is drawn once in default style.
func HighlightDOT(src Source, a, b string) (string, error) {
	members := src.Members()
	known := make(map[string]bool, len(members))
	for _, m := range members {
		known[m.ID] = true
	}
	for _, id := range []string{a, b} {
		if !known[id] {
			return "", &network.Error{Kind: network.KindNotFound, ID: id}
		}
	}

	ends := []string{a, b}
	if a == b {
		ends = ends[:1]
	}
	mutual := src.MutualConnections(a, b)
	highlighted := make(map[Edge]bool, 2*len(mutual))

	var out strings.Builder
	out.WriteString("graph MutualHighlight {\n")
	out.WriteString("  node [shape=ellipse, style=filled, fillcolor=white];\n")
	for _, m := range members {
		fmt.Fprintf(&out, "  %s;\n", quote(m.ID))
	}
	for _, m := range mutual {
		fmt.Fprintf(&out, "  %s [fillcolor=lightgreen];\n", quote(m))
		for _, end := range ends {
			fmt.Fprintf(&out, "  %s -- %s [color=green, penwidth=2.0];\n", quote(end), quote(m))
			highlighted[orient(end, m)] = true
		}
	}
	for _, m := range members {
		for _, n := range src.Neighbors(m.ID) {
			if m.ID >= n || highlighted[Edge{From: m.ID, To: n}] {
				continue
			}
			fmt.Fprintf(&out, "  %s -- %s;\n", quote(m.ID), quote(n))
		}
	}
	out.WriteString("}\n")
	return out.String(), nil
}

func orient(a, b string) Edge {
	if a < b {
		return Edge{From: a, To: b}
	}
	return Edge{From: b, To: a}
}

func nodeLabel(m network.Member) string {
	interest, _ := m.Attribute(network.AttrInterest)
	activity, _ := m.Attribute(network.AttrFavoriteActivity)
	return strings.Join([]string{m.ID, m.Role(), interest, activity}, `\n`)
}

// quote wraps s in double quotes for use as a DOT id. Backslashes are left
// alone so that label escapes such as \n keep working.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
