// Package render turns extracted declarations and documentation pages into
// Markdown output.
//
// Anchors use the heading attribute syntax ({#id}). A top-level declaration
// is anchored at its own name and each member at "<symbol>-<member>", which
// is the form {ref} targets use.
package render
