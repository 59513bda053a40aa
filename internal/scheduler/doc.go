// Package scheduler drives an operation across a leveled dependency graph
// with bounded concurrency. A level is a synchronization barrier: every
// node in level i completes (or short-circuits to Skipped) before any node
// in level i+1 starts. Within a level, up to MaxParallel nodes run
// concurrently; the configured failure policy decides what happens after
// a node fails. Interactive commands and generated CI pipelines consume
// the same level partition, so both share identical ordering semantics.
package scheduler
