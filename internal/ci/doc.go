// Package ci turns a leveled dependency graph into a CI pipeline
// definition. Each level becomes a stage, each node a job in that stage,
// and every job needs all jobs of the previous stage. Because the stages
// come from the same level partition the scheduler consumes, generated
// pipelines and interactively-run operations share identical ordering
// semantics.
package ci
