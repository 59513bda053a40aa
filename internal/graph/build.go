package graph

import (
	"context"
	"sort"

	"github.com/canopy-iac/canopy/internal/ctxlog"
)

// Graph is the resolved dependency structure: a set of nodes and the
// directed edges between them. Every edge's endpoints are members of the
// node set. A Graph is immutable once returned by Build or BuildAll.
type Graph struct {
	nodes map[NodeID]*Node
	// edges maps From -> To -> originating edge.
	edges map[NodeID]map[NodeID]Edge
	// reverse maps To -> set of From, for dependent queries.
	reverse map[NodeID]map[NodeID]struct{}
}

func newGraph() *Graph {
	return &Graph{
		nodes:   make(map[NodeID]*Node),
		edges:   make(map[NodeID]map[NodeID]Edge),
		reverse: make(map[NodeID]map[NodeID]struct{}),
	}
}

// Build performs a breadth-first traversal outward along dependency edges
// starting at root, resolving each visited node's declarations against the
// universe. The resulting graph contains root and everything it
// transitively depends on. An unresolvable declaration is a hard error.
func Build(ctx context.Context, u *Universe, root NodeID) (*Graph, error) {
	rootNode, ok := u.Node(root)
	if !ok {
		return nil, &UnresolvedDependencyError{
			Node:        root,
			Decl:        DependencyDeclaration{Project: root.Project, Environment: root.Environment},
			Suggestions: u.suggestFor(root),
		}
	}
	return build(ctx, u, []*Node{rootNode})
}

// BuildAll seeds the traversal with every discovered node simultaneously,
// producing the whole-universe graph used by graph --all and deps analyze.
func BuildAll(ctx context.Context, u *Universe) (*Graph, error) {
	return build(ctx, u, u.Nodes())
}

func build(ctx context.Context, u *Universe, seeds []*Node) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting graph construction.", "seeds", len(seeds))

	g := newGraph()
	queue := make([]*Node, 0, len(seeds))
	for _, n := range seeds {
		if _, visited := g.nodes[n.ID]; visited {
			continue
		}
		g.nodes[n.ID] = n
		queue = append(queue, n)
	}

	// Each node is resolved at most once; repeated edges into an
	// already-visited node are recorded but do not re-enqueue it.
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		edges, err := u.Resolve(n)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			target, ok := u.Node(e.To)
			if !ok {
				// Resolve only returns IDs present in the universe.
				continue
			}
			if _, visited := g.nodes[target.ID]; !visited {
				g.nodes[target.ID] = target
				queue = append(queue, target)
			}
			g.addEdge(e)
		}
	}

	logger.Debug("Graph construction complete.", "nodes", len(g.nodes), "edges", g.EdgeCount())
	return g, nil
}

func (g *Graph) addEdge(e Edge) {
	if g.edges[e.From] == nil {
		g.edges[e.From] = make(map[NodeID]Edge)
	}
	g.edges[e.From][e.To] = e
	if g.reverse[e.To] == nil {
		g.reverse[e.To] = make(map[NodeID]struct{})
	}
	g.reverse[e.To][e.From] = struct{}{}
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of resolved edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, targets := range g.edges {
		count += len(targets)
	}
	return count
}

// Node returns the node with the given ID, if present.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns all node IDs sorted lexicographically.
func (g *Graph) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	return sortIDs(ids)
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []*Node {
	ids := g.NodeIDs()
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns all edges sorted by (From, To).
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, targets := range g.edges {
		for _, e := range targets {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From.Less(out[j].From)
		}
		return out[i].To.Less(out[j].To)
	})
	return out
}

// DependenciesOf returns the IDs the given node directly depends on, sorted.
func (g *Graph) DependenciesOf(id NodeID) []NodeID {
	targets := g.edges[id]
	ids := make([]NodeID, 0, len(targets))
	for to := range targets {
		ids = append(ids, to)
	}
	return sortIDs(ids)
}

// DependentsOf returns the IDs that directly depend on the given node, sorted.
func (g *Graph) DependentsOf(id NodeID) []NodeID {
	sources := g.reverse[id]
	ids := make([]NodeID, 0, len(sources))
	for from := range sources {
		ids = append(ids, from)
	}
	return sortIDs(ids)
}
