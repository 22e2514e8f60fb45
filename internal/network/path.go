package network

import "slices"

// PathFinder answers reachability queries with breadth-first search.
type PathFinder struct {
	members MemberLookup
	graph   *ConnectionGraph
}

// NewPathFinder creates a PathFinder over graph.
func NewPathFinder(members MemberLookup, graph *ConnectionGraph) *PathFinder {
	return &PathFinder{members: members, graph: graph}
}

// ShortestPath returns the fewest-hop path from start to end, both included.
// Neighbors are expanded in adjacency insertion order and the first node to
// discover another becomes its predecessor, so among equal-length paths the
// one through earlier connections wins. The bool is false when either member
// is unknown or end cannot be reached.
func (p *PathFinder) ShortestPath(start, end string) ([]string, bool) {
	if !p.members.Exists(start) || !p.members.Exists(end) {
		return nil, false
	}
	if start == end {
		return []string{start}, true
	}

	visited := map[string]bool{start: true}
	parent := make(map[string]string)
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range p.graph.neighbors(current) {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = current
			if next == end {
				return reconstruct(parent, start, end), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

// Distance returns the hop count between start and end.
func (p *PathFinder) Distance(start, end string) (int, bool) {
	path, ok := p.ShortestPath(start, end)
	if !ok {
		return 0, false
	}
	return len(path) - 1, true
}

func reconstruct(parent map[string]string, start, end string) []string {
	path := []string{end}
	for at := end; at != start; {
		at = parent[at]
		path = append(path, at)
	}
	slices.Reverse(path)
	return path
}
