// Package errors provides the classified error primitives used across symdoc.
//
// Every failure that reaches a page boundary is a ClassifiedError carrying a
// category, a severity and structured context (page, file, symbol, command)
// so that the build log contains enough detail to reproduce the failure
// without re-running in verbose mode.
//
// Categories map onto the failure taxonomy of a documentation build:
//   - CategoryConfig: unknown package, invalid symbol name, missing source file
//   - CategoryExtraction: the external extractor exited non-zero or timed out
//   - CategoryToolOutput: the extractor produced output of an unexpected shape
//   - CategorySymbol: the requested symbol is absent from a parsed source file
//   - CategoryInternal: broken invariants (e.g. resolving a never-scanned record)
//
// Example usage:
//
//	err := errors.ExtractionError("extractor exited with status 1").
//		WithContext("command", cmdline).
//		WithContext("output", combined).
//		WithCause(runErr).
//		Build()
package errors
