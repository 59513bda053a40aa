// Package cli wires the cobra command tree. Commands only parse flags,
// assemble the universe and graph, and hand over to the core packages;
// no graph or scheduling logic lives here.
package cli
