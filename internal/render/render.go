package render

import (
	"fmt"

	"github.com/canopy-iac/canopy/internal/graph"
)

// Format names a supported diagram format.
type Format string

const (
	FormatASCII   Format = "ascii"
	FormatMermaid Format = "mermaid"
	FormatDOT     Format = "dot"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatASCII, FormatMermaid, FormatDOT:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (expected ascii, mermaid or dot)", s)
}

// Graph renders g in the requested format. A non-nil root selects the
// ascii tree rooted at that node; with a nil root the ascii renderer
// emits a forest rooted at the nodes nothing depends on.
func Graph(g *graph.Graph, root *graph.NodeID, f Format) (string, error) {
	switch f {
	case FormatASCII:
		if root != nil {
			return asciiTree(g, *root)
		}
		return asciiForest(g), nil
	case FormatMermaid:
		return mermaid(g), nil
	case FormatDOT:
		return dot(g), nil
	}
	return "", fmt.Errorf("unknown format %q", f)
}
