package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Mermaid generates a Mermaid diagram of the network, grouping members by
// department.
func Mermaid(src Source) string {
	g := Analyze(src, "")

	var b strings.Builder
	b.WriteString("graph LR\n")

	// Node ids are positional so that distinct member ids never share one.
	nodeIDs := make(map[string]string, len(g.Nodes))
	for i, n := range g.Nodes {
		nodeIDs[n.ID] = fmt.Sprintf("n%d", i)
	}

	// Group nodes by department, keeping first-seen order
	var departments []string
	groups := make(map[string][]Node)
	for _, n := range g.Nodes {
		if _, ok := groups[n.Department]; !ok {
			departments = append(departments, n.Department)
		}
		groups[n.Department] = append(groups[n.Department], n)
	}

	for i, dept := range departments {
		indent := "  "
		if dept != "" {
			b.WriteString(fmt.Sprintf("  subgraph d%d [\"%s\"]\n", i, mermaidLabel(dept)))
			indent = "    "
		}
		for _, n := range groups[dept] {
			b.WriteString(fmt.Sprintf("%s%s[\"%s\"]\n", indent, nodeIDs[n.ID], mermaidLabel(n.ID)))
		}
		if dept != "" {
			b.WriteString("  end\n")
		}
	}

	for _, e := range g.Edges {
		b.WriteString(fmt.Sprintf("  %s --- %s\n", nodeIDs[e.From], nodeIDs[e.To]))
	}

	return b.String()
}

// JSON serializes the network, with statistics, to indented JSON.
func JSON(src Source, name string) ([]byte, error) {
	return json.MarshalIndent(Analyze(src, name), "", "  ")
}

// AdjacencyMatrix renders a 0/1 connection grid with members in registration
// order on both axes.
func AdjacencyMatrix(src Source) string {
	members := src.Members()
	width := 5
	for _, m := range members {
		if len(m.ID)+1 > width {
			width = len(m.ID) + 1
		}
	}

	connected := make(map[string]map[string]bool, len(members))
	for _, m := range members {
		row := make(map[string]bool)
		for _, n := range src.Neighbors(m.ID) {
			row[n] = true
		}
		connected[m.ID] = row
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width))
	for _, m := range members {
		b.WriteString(fmt.Sprintf("%-*s", width, m.ID))
	}
	b.WriteString("\n")
	for _, row := range members {
		b.WriteString(fmt.Sprintf("%-*s", width, row.ID))
		for _, col := range members {
			v := 0
			if connected[row.ID][col.ID] {
				v = 1
			}
			b.WriteString(fmt.Sprintf("%-*d", width, v))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Overview lists every member with department, role and connections in the
// order they were made.
func Overview(src Source) string {
	var b strings.Builder
	for _, m := range src.Members() {
		b.WriteString(fmt.Sprintf("%s (%s, %s) is connected to:", m.ID, m.Department(), m.Role()))
		for _, n := range src.Neighbors(m.ID) {
			b.WriteString(" " + n)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatStats returns a human-readable summary of graph statistics.
func FormatStats(s GraphStats) string {
	var b strings.Builder
	b.WriteString("Social Graph Statistics\n")
	b.WriteString("=======================\n\n")
	b.WriteString(fmt.Sprintf("Members:      %d total\n", s.TotalMembers))
	b.WriteString(fmt.Sprintf("  Isolated:   %d\n", s.IsolatedMembers))
	b.WriteString(fmt.Sprintf("Connections:  %d total\n", s.TotalConnections))
	b.WriteString(fmt.Sprintf("Avg Degree:   %.2f\n", s.AverageDegree))
	b.WriteString(fmt.Sprintf("Max Degree:   %d (%s)\n", s.MaxDegree, s.HotspotMember))
	b.WriteString(fmt.Sprintf("Components:   %d (largest %d)\n", s.ConnectedComponents, s.LargestComponent))

	if len(s.DepartmentSizes) > 0 {
		depts := make([]string, 0, len(s.DepartmentSizes))
		for d := range s.DepartmentSizes {
			depts = append(depts, d)
		}
		sort.Strings(depts)

		b.WriteString("\nDepartments:\n")
		for _, d := range depts {
			b.WriteString(fmt.Sprintf("  %s: %d\n", d, s.DepartmentSizes[d]))
		}
	}

	return b.String()
}

func sanitizeDOTID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

// mermaidLabel escapes double quotes inside a quoted Mermaid label.
func mermaidLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
