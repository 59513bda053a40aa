// Package manifest discovers project/environment metadata on disk and
// turns it into the node universe the graph builder consumes. Manifests
// are HCL files containing project blocks; each (project, environment)
// pair becomes one node. The core never reads the filesystem itself;
// this package is the universe provider in front of it.
package manifest
