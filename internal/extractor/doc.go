// Package extractor wraps the external symbol-extraction tool.
//
// The Adapter is the only component that invokes the tool. It consults the
// registry first and re-runs the tool only when the source file's current
// modification time is newer than the scan time recorded for the symbol.
// A failed extraction never writes a record.
package extractor
