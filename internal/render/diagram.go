package render

import (
	"fmt"
	"strings"

	"github.com/canopy-iac/canopy/internal/graph"
)

// sanitizeID reduces a node ID to the [A-Za-z0-9_] identifier charset
// required by mermaid and DOT.
func sanitizeID(id graph.NodeID) string {
	var sb strings.Builder
	for _, r := range id.String() {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// mermaid emits a top-down mermaid flowchart: one declaration line per
// node, one arrow line per edge.
func mermaid(g *graph.Graph) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, id := range g.NodeIDs() {
		fmt.Fprintf(&sb, "    %s[\"%s\\n(%s)\"]\n", sanitizeID(id), id.Project, id.Environment)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeID(e.From), sanitizeID(e.To))
	}
	return sb.String()
}

// dot emits a Graphviz digraph with left-to-right ranking and rounded
// box nodes.
func dot(g *graph.Graph) string {
	var sb strings.Builder
	sb.WriteString("digraph dependencies {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n")
	for _, id := range g.NodeIDs() {
		fmt.Fprintf(&sb, "    %s [label=\"%s\\n(%s)\"];\n", sanitizeID(id), id.Project, id.Environment)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&sb, "    %s -> %s;\n", sanitizeID(e.From), sanitizeID(e.To))
	}
	sb.WriteString("}\n")
	return sb.String()
}
