package graph

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/labels"
)

// Universe is the full set of discovered project/environment nodes a graph
// can be built from. It is supplied explicitly by the caller (the manifest
// loader in production, a fixture in tests) rather than read from ambient
// global state.
type Universe struct {
	nodes map[NodeID]*Node
	order []NodeID
}

// NewUniverse builds a universe from the given nodes. Duplicate IDs are an
// error: two declarations that resolve to the same (project, environment)
// pair are the same node.
func NewUniverse(nodes []*Node) (*Universe, error) {
	u := &Universe{nodes: make(map[NodeID]*Node, len(nodes))}
	for _, n := range nodes {
		if _, exists := u.nodes[n.ID]; exists {
			return nil, fmt.Errorf("duplicate node %s in universe", n.ID)
		}
		u.nodes[n.ID] = n
		u.order = append(u.order, n.ID)
	}
	sortIDs(u.order)
	return u, nil
}

// Node returns the node with the given ID, if present.
func (u *Universe) Node(id NodeID) (*Node, bool) {
	n, ok := u.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by ID.
func (u *Universe) Nodes() []*Node {
	out := make([]*Node, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.nodes[id])
	}
	return out
}

// Len returns the number of nodes in the universe.
func (u *Universe) Len() int {
	return len(u.nodes)
}

// Resolve turns one node's dependency declarations into concrete edges
// against the universe. Resolution precedence: explicit references are
// looked up directly; descriptive declarations filter by apiVersion+kind
// and optional label selector, with the declaration name narrowing
// multi-candidate matches.
func (u *Universe) Resolve(n *Node) ([]Edge, error) {
	edges := make([]Edge, 0, len(n.Dependencies))
	for _, decl := range n.Dependencies {
		target, err := u.resolveOne(n, decl)
		if err != nil {
			return nil, err
		}
		if target == n.ID {
			return nil, &InvalidDependencyError{Node: n.ID, Decl: decl, Reason: "node depends on itself"}
		}
		edges = append(edges, Edge{From: n.ID, To: target, Decl: decl})
	}
	return edges, nil
}

func (u *Universe) resolveOne(n *Node, decl DependencyDeclaration) (NodeID, error) {
	if decl.IsExplicit() {
		return u.resolveExplicit(n, decl)
	}
	if decl.APIVersion == "" || decl.Kind == "" {
		return NodeID{}, &InvalidDependencyError{Node: n.ID, Decl: decl,
			Reason: "declaration must name a project or an apiVersion and kind"}
	}
	return u.resolveDescriptive(n, decl)
}

// resolveExplicit looks up a project/environment reference directly. An
// empty environment defaults to the declaring node's own environment.
func (u *Universe) resolveExplicit(n *Node, decl DependencyDeclaration) (NodeID, error) {
	env := decl.Environment
	if env == "" {
		env = n.ID.Environment
	}
	id := NodeID{Project: decl.Project, Environment: env}
	if _, ok := u.nodes[id]; !ok {
		return NodeID{}, &UnresolvedDependencyError{
			Node:        n.ID,
			Decl:        decl,
			Suggestions: u.suggestFor(id),
		}
	}
	return id, nil
}

// resolveDescriptive filters the universe by apiVersion+kind and optional
// labels, then narrows multiple candidates via the declaration name.
func (u *Universe) resolveDescriptive(n *Node, decl DependencyDeclaration) (NodeID, error) {
	selector := labels.Everything()
	if len(decl.MatchLabels) > 0 {
		selector = labels.SelectorFromSet(labels.Set(decl.MatchLabels))
	}

	var candidates []NodeID
	for _, id := range u.order {
		cand := u.nodes[id]
		if cand.APIVersion != decl.APIVersion || cand.Kind != decl.Kind {
			continue
		}
		if !selector.Matches(labels.Set(cand.Labels)) {
			continue
		}
		candidates = append(candidates, id)
	}

	switch len(candidates) {
	case 0:
		return NodeID{}, &UnresolvedDependencyError{Node: n.ID, Decl: decl, Suggestions: u.suggestKinds(decl)}
	case 1:
		return candidates[0], nil
	}

	if decl.Name == "" {
		return NodeID{}, &AmbiguousDependencyError{Node: n.ID, Decl: decl, Candidates: candidates}
	}

	// Named lookup: project names first, then declared aliases.
	narrowed := narrowByName(candidates, decl.Name, func(id NodeID) string { return id.Project })
	if len(narrowed) == 0 {
		narrowed = narrowByName(candidates, decl.Name, func(id NodeID) string { return u.nodes[id].Alias })
	}
	switch len(narrowed) {
	case 0:
		return NodeID{}, &UnresolvedDependencyError{Node: n.ID, Decl: decl, Suggestions: idStrings(candidates)}
	case 1:
		return narrowed[0], nil
	default:
		return NodeID{}, &AmbiguousDependencyError{Node: n.ID, Decl: decl, Candidates: narrowed}
	}
}

func narrowByName(ids []NodeID, name string, keyOf func(NodeID) string) []NodeID {
	var out []NodeID
	for _, id := range ids {
		if keyOf(id) == name {
			out = append(out, id)
		}
	}
	return out
}

// suggestFor lists plausible alternatives for a missed explicit reference:
// other environments of the named project, then projects sharing the
// requested environment.
func (u *Universe) suggestFor(miss NodeID) []string {
	var sameProject, sameEnv []string
	for _, id := range u.order {
		if id.Project == miss.Project {
			sameProject = append(sameProject, id.String())
		} else if id.Environment == miss.Environment {
			sameEnv = append(sameEnv, id.String())
		}
	}
	if len(sameProject) > 0 {
		return sameProject
	}
	return sameEnv
}

// suggestKinds lists the resource kinds present in the universe when a
// descriptive match found nothing.
func (u *Universe) suggestKinds(decl DependencyDeclaration) []string {
	seen := make(map[string]struct{})
	for _, id := range u.order {
		seen[u.nodes[id].ResourceKind()] = struct{}{}
	}
	kinds := make([]string, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func idStrings(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
