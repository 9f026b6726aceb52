package graph

import (
	"slices"

	"github.com/chazu/lumberyard/pkg/lumber"
)

// Graph is the adjacency over lumber IDs. Edges is undirected: a
// connection record on either piece links both. Out keeps only the records
// each piece holds itself. It is a snapshot; rebuild it after mutations.
type Graph struct {
	Nodes map[string]struct{}
	Edges map[string][]string // sorted, deduplicated neighbours
	Out   map[string][]string // sorted targets of each piece's own records
}

// Build derives the graph from the pieces' connection records. Targets
// that are not among lumbers still appear as nodes so traversal reaches
// them; Validate reports them as dangling.
func Build(lumbers []lumber.Lumber) *Graph {
	g := &Graph{
		Nodes: make(map[string]struct{}, len(lumbers)),
		Edges: make(map[string][]string, len(lumbers)),
		Out:   make(map[string][]string, len(lumbers)),
	}
	for _, l := range lumbers {
		g.Nodes[l.ID] = struct{}{}
	}
	for _, l := range lumbers {
		for _, c := range l.Connections {
			if c.TargetLumberID == "" || c.TargetLumberID == l.ID {
				continue
			}
			g.Nodes[c.TargetLumberID] = struct{}{}
			link(g.Edges, l.ID, c.TargetLumberID)
			link(g.Edges, c.TargetLumberID, l.ID)
			link(g.Out, l.ID, c.TargetLumberID)
		}
	}
	return g
}

func link(edges map[string][]string, a, b string) {
	n := edges[a]
	i, found := slices.BinarySearch(n, b)
	if found {
		return
	}
	edges[a] = slices.Insert(n, i, b)
}

// Neighbors returns the IDs directly connected to id, sorted.
func (g *Graph) Neighbors(id string) []string {
	return slices.Clone(g.Edges[id])
}

// EdgeCount is the number of undirected links.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, e := range g.Edges {
		n += len(e)
	}
	return n / 2
}

// ConnectedGroup returns every ID reachable from id by following each
// piece's own connection records, including id itself, in breadth-first
// order. A one-way record from a to b puts b in a's group but not a in
// b's. An ID not in the graph yields just itself.
func (g *Graph) ConnectedGroup(id string) []string {
	return reach(g.Out, id)
}

func reach(edges map[string][]string, id string) []string {
	seen := map[string]bool{id: true}
	queue := []string{id}
	for i := 0; i < len(queue); i++ {
		for _, next := range edges[queue[i]] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return queue
}

// Components partitions the undirected graph into connected groups. Each
// group is sorted and groups are ordered by their first ID.
func (g *Graph) Components() [][]string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	seen := make(map[string]bool, len(ids))
	var out [][]string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		group := reach(g.Edges, id)
		for _, m := range group {
			seen[m] = true
		}
		slices.Sort(group)
		out = append(out, group)
	}
	return out
}
