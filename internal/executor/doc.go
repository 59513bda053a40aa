// Package executor defines the backend that performs real infrastructure
// operations for a node, and its concrete implementations. The scheduler
// depends only on the Executor interface and the Op adapter, never on a
// concrete backend.
package executor
