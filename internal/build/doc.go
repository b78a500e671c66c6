// Package build runs documentation builds.
//
// A build has four phases. Plan compares page fingerprints with the last
// snapshot and asks the dependency tracker for pages whose sources moved on.
// The read phase spreads the queued pages over workers, each with a private
// registry clone, and runs the extractor where the cache is stale. Merge
// folds each worker's registry back, scoped to the pages it was assigned.
// The write phase renders every page against the merged registry.
//
// All execution paths (CLI, watch mode, tests) route through Service.
package build
