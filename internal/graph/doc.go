// Package graph is the dependency engine of the application. It resolves
// declared dependencies between project/environment pairs into a directed
// graph, validates that the graph is acyclic, partitions it into execution
// levels, and answers impact (blast-radius) queries.
//
// The graph is rebuilt from declared metadata on every command invocation
// and is immutable once built, so it can be shared freely across worker
// goroutines during execution.
package graph
