// Package render produces textual diagrams of a dependency graph. All
// output lists nodes in lexicographic ID order so renderings are
// reproducible across runs.
package render
