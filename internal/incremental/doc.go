// Package incremental decides which pages a rebuild must process.
//
// DiffPages compares page fingerprints between two builds and yields the
// explicit added, changed and removed sets. Tracker.StalePages then finds the
// pages whose text did not change but whose documented source files did.
// SnapshotCache carries the registry, and with it the scan times the Tracker
// compares against, from one process to the next.
package incremental
