package render

import (
	"fmt"
	"strings"

	"github.com/canopy-iac/canopy/internal/graph"
)

// asciiTree renders a depth-first indented listing rooted at the query node.
func asciiTree(g *graph.Graph, root graph.NodeID) (string, error) {
	if _, ok := g.Node(root); !ok {
		return "", fmt.Errorf("node %s not found in graph", root)
	}
	var sb strings.Builder
	writeSubtree(&sb, g, root, 0, make(map[graph.NodeID]bool))
	return sb.String(), nil
}

// asciiForest renders every node nothing depends on as a separate tree.
// Standalone nodes show up as single-line trees.
func asciiForest(g *graph.Graph) string {
	var sb strings.Builder
	for _, id := range g.NodeIDs() {
		if len(g.DependentsOf(id)) == 0 {
			writeSubtree(&sb, g, id, 0, make(map[graph.NodeID]bool))
		}
	}
	return sb.String()
}

func writeSubtree(sb *strings.Builder, g *graph.Graph, id graph.NodeID, depth int, onPath map[graph.NodeID]bool) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(id.String())
	if onPath[id] {
		// Guard against malformed graphs; a validated graph never loops.
		sb.WriteString(" (cycle)\n")
		return
	}
	sb.WriteString("\n")

	onPath[id] = true
	for _, dep := range g.DependenciesOf(id) {
		writeSubtree(sb, g, dep, depth+1, onPath)
	}
	delete(onPath, id)
}
