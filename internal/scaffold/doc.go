// Package scaffold generates a new project directory from a template
// directory. Every file in the template is rendered with text/template
// plus the sprig function set; rendered paths mirror the template layout.
package scaffold
