package graph

import (
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// NodeID uniquely identifies one project deployed into one environment.
// It is a value type: two IDs with the same fields are the same node.
type NodeID struct {
	Project     string
	Environment string
}

// String returns the canonical "project/environment" form of the ID.
func (id NodeID) String() string {
	return id.Project + "/" + id.Environment
}

// Less orders IDs lexicographically by project, then environment. All
// rendered output sorts by this ordering so runs are reproducible.
func (id NodeID) Less(other NodeID) bool {
	if id.Project != other.Project {
		return id.Project < other.Project
	}
	return id.Environment < other.Environment
}

// ExecutorKind selects the executor backend for a node.
type ExecutorKind string

const (
	// ExecutorOpenTofu runs real infrastructure operations via the tofu CLI.
	ExecutorOpenTofu ExecutorKind = "opentofu"
	// ExecutorNone performs no infrastructure operation. The node still
	// participates in graph ordering.
	ExecutorNone ExecutorKind = "none"
)

// Node represents one project deployed into one environment. Nodes are
// constructed fresh from on-disk metadata on every command invocation and
// never mutated afterwards.
type Node struct {
	ID         NodeID
	APIVersion string
	Kind       string
	// Alias is an optional secondary name a dependency declaration can
	// target when descriptive matching is ambiguous.
	Alias    string
	Labels   map[string]string
	Executor ExecutorKind
	// Dir is the working directory handed to the executor backend.
	Dir string
	// Vars are input values forwarded to the executor backend. Values keep
	// their manifest-level types until the backend serializes them.
	Vars         map[string]cty.Value
	Dependencies []DependencyDeclaration
}

// ResourceKind returns the combined apiVersion/kind string of the node's
// underlying resource.
func (n *Node) ResourceKind() string {
	return n.APIVersion + "/" + n.Kind
}

// DependencyDeclaration is a single dependency as authored by a user or
// template. It is either an explicit project/environment reference or a
// descriptive apiVersion+kind match with an optional label selector.
type DependencyDeclaration struct {
	// Explicit reference. Environment may be empty, in which case it
	// defaults to the declaring node's own environment.
	Project     string
	Environment string

	// Descriptive match.
	APIVersion  string
	Kind        string
	MatchLabels map[string]string

	// Name disambiguates when a descriptive match yields multiple
	// candidates. It is compared against candidate project names first,
	// then against declared aliases.
	Name string
}

// IsExplicit reports whether the declaration names a project directly.
func (d DependencyDeclaration) IsExplicit() bool {
	return d.Project != ""
}

// String renders the declaration for error messages.
func (d DependencyDeclaration) String() string {
	if d.IsExplicit() {
		if d.Environment == "" {
			return "project " + d.Project
		}
		return "project " + d.Project + " (environment " + d.Environment + ")"
	}
	var sb strings.Builder
	sb.WriteString(d.APIVersion + "/" + d.Kind)
	if len(d.MatchLabels) > 0 {
		keys := make([]string, 0, len(d.MatchLabels))
		for k := range d.MatchLabels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k + "=" + d.MatchLabels[k])
		}
		sb.WriteString("}")
	}
	if d.Name != "" {
		sb.WriteString(" named " + d.Name)
	}
	return sb.String()
}

// Edge is a resolved dependency: From depends on To. To must be processed
// before From for apply-like operations, and after From for destroy-like
// operations. The originating declaration is kept for diagnostics.
type Edge struct {
	From NodeID
	To   NodeID
	Decl DependencyDeclaration
}

// sortIDs sorts a slice of NodeIDs in place and returns it.
func sortIDs(ids []NodeID) []NodeID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}
