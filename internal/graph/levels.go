package graph

// Level is one group of nodes whose dependencies are all satisfied by
// earlier levels. Nodes within a level carry no ordering constraint among
// themselves; the slice is sorted by ID for deterministic rendering only.
type Level []NodeID

// AssignLevels partitions the graph into ordered levels using iterative
// topological leveling (a Kahn's algorithm variant). Each node lands on
// the lowest level consistent with its dependencies: level 0 holds the
// nodes with no dependencies, level i holds nodes whose dependencies all
// sit in levels below i. A non-empty cyclic remainder yields a CycleError.
func AssignLevels(g *Graph) ([]Level, error) {
	// remaining counts each node's dependency edges into unleveled nodes.
	remaining := make(map[NodeID]int, len(g.nodes))
	for id := range g.nodes {
		remaining[id] = len(g.edges[id])
	}

	var levels []Level
	leveled := 0

	queue := make([]NodeID, 0, len(g.nodes))
	for id, deg := range remaining {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		level := Level(sortIDs(queue))
		levels = append(levels, level)
		leveled += len(level)

		var next []NodeID
		for _, id := range level {
			for dependent := range g.reverse[id] {
				remaining[dependent]--
				if remaining[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		queue = next
	}

	if leveled != len(g.nodes) {
		return nil, cycleError(g, remaining)
	}
	return levels, nil
}

// cycleError builds a CycleError from the unleveled remainder, deriving a
// representative chain by walking dependency edges inside the remainder
// until a node repeats.
func cycleError(g *Graph, remaining map[NodeID]int) *CycleError {
	stuck := make(map[NodeID]bool)
	var members []NodeID
	for id, deg := range remaining {
		if deg > 0 {
			stuck[id] = true
			members = append(members, id)
		}
	}
	sortIDs(members)

	// Walk from the smallest stuck node, always picking the smallest
	// stuck dependency, until we revisit a node. The walk is finite
	// because every stuck node has at least one stuck dependency.
	seen := make(map[NodeID]int)
	var walk []NodeID
	current := members[0]
	for {
		if at, ok := seen[current]; ok {
			chain := append(walk[at:], current)
			return &CycleError{Members: members, Chain: chain}
		}
		seen[current] = len(walk)
		walk = append(walk, current)

		next, ok := smallestStuckDep(g, current, stuck)
		if !ok {
			return &CycleError{Members: members}
		}
		current = next
	}
}

func smallestStuckDep(g *Graph, id NodeID, stuck map[NodeID]bool) (NodeID, bool) {
	var best NodeID
	found := false
	for dep := range g.edges[id] {
		if !stuck[dep] {
			continue
		}
		if !found || dep.Less(best) {
			best = dep
			found = true
		}
	}
	return best, found
}
