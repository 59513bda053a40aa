package graph

import (
	"fmt"
	"strings"
)

// UnresolvedDependencyError reports a declaration that resolved to zero
// candidate nodes. It is fatal and surfaced before any execution begins.
type UnresolvedDependencyError struct {
	Node        NodeID
	Decl        DependencyDeclaration
	Suggestions []string
}

func (e *UnresolvedDependencyError) Error() string {
	msg := fmt.Sprintf("node %s: dependency %s does not resolve to any known project/environment", e.Node, e.Decl)
	if len(e.Suggestions) > 0 {
		msg += "; did you mean: " + strings.Join(e.Suggestions, ", ")
	}
	return msg
}

// AmbiguousDependencyError reports a descriptive declaration that matched
// multiple candidates without a disambiguating name.
type AmbiguousDependencyError struct {
	Node       NodeID
	Decl       DependencyDeclaration
	Candidates []NodeID
}

func (e *AmbiguousDependencyError) Error() string {
	ids := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		ids[i] = c.String()
	}
	return fmt.Sprintf("node %s: dependency %s is ambiguous, candidates: %s (set name to disambiguate)",
		e.Node, e.Decl, strings.Join(ids, ", "))
}

// InvalidDependencyError reports a self-referential or malformed declaration.
type InvalidDependencyError struct {
	Node   NodeID
	Decl   DependencyDeclaration
	Reason string
}

func (e *InvalidDependencyError) Error() string {
	return fmt.Sprintf("node %s: invalid dependency %s: %s", e.Node, e.Decl, e.Reason)
}

// CycleError reports a dependency cycle detected during level assignment.
// Execution must not proceed when one is returned.
type CycleError struct {
	// Members are the node IDs trapped in the cyclic remainder, sorted.
	Members []NodeID
	// Chain is a representative dependency chain through the cycle,
	// ending back at its starting node.
	Chain []NodeID
}

func (e *CycleError) Error() string {
	if len(e.Chain) > 0 {
		parts := make([]string, len(e.Chain))
		for i, id := range e.Chain {
			parts[i] = id.String()
		}
		return "dependency cycle detected: " + strings.Join(parts, " -> ")
	}
	ids := make([]string, len(e.Members))
	for i, id := range e.Members {
		ids[i] = id.String()
	}
	return "dependency cycle detected among: " + strings.Join(ids, ", ")
}
