// Package registry holds the per-build symbol cache and page index.
//
// A Registry maps package -> symbol name -> Record and page id -> Page. It is
// an explicit value: each build worker owns a private Registry while it reads
// pages, and the coordinator folds worker state back with Merge, scoped to the
// pages each worker was assigned.
//
// Package iteration order is the order in which packages were first added to
// the registry. Resolve depends on it: when several packages declare the same
// symbol name, the package added first wins.
package registry
