// Package app holds the runtime configuration shared by CLI commands and
// the logger construction that goes with it.
package app
