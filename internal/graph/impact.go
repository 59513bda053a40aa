package graph

import (
	"fmt"
	"sort"
)

// ImpactResult describes the blast radius of a node: who depends on it
// directly, and who is affected transitively. Direct is always a subset
// of Transitive.
type ImpactResult struct {
	Target     NodeID
	Direct     []NodeID
	Transitive []NodeID
}

// Impact computes direct and transitive dependents of target by reverse
// BFS over the dependency edges. The graph should be built in whole-graph
// mode so dependents outside the target's own subtree are visible.
func Impact(g *Graph, target NodeID) (*ImpactResult, error) {
	if _, ok := g.nodes[target]; !ok {
		return nil, fmt.Errorf("node %s not found in graph", target)
	}

	direct := g.DependentsOf(target)

	visited := map[NodeID]bool{target: true}
	var transitive []NodeID
	queue := append([]NodeID(nil), direct...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		transitive = append(transitive, id)
		queue = append(queue, g.DependentsOf(id)...)
	}

	return &ImpactResult{
		Target:     target,
		Direct:     direct,
		Transitive: sortIDs(transitive),
	}, nil
}

// BottleneckEntry ranks one node by how many nodes depend on it directly.
type BottleneckEntry struct {
	ID         NodeID
	Dependents int
}

// Bottlenecks returns every node with at least one dependent, ordered by
// dependent count descending, then by ID for stable output.
func Bottlenecks(g *Graph) []BottleneckEntry {
	var out []BottleneckEntry
	for _, id := range g.NodeIDs() {
		if n := len(g.reverse[id]); n > 0 {
			out = append(out, BottleneckEntry{ID: id, Dependents: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Dependents != out[j].Dependents {
			return out[i].Dependents > out[j].Dependents
		}
		return out[i].ID.Less(out[j].ID)
	})
	return out
}

// Standalone returns nodes with no dependencies and no dependents, sorted.
func Standalone(g *Graph) []NodeID {
	var out []NodeID
	for _, id := range g.NodeIDs() {
		if len(g.edges[id]) == 0 && len(g.reverse[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}
