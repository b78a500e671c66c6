// Package metrics provides the observability hooks of a symdoc build.
//
// # Design
//
// Components depend on the Recorder interface and default to NoopRecorder,
// so metrics collection never needs nil checks at call sites:
//
//	adapter := extractor.NewAdapter(tool) // records into NoopRecorder
//	adapter.WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// PrometheusRecorder registers its collectors on the registry it is given.
// HTTPHandler exposes that registry; `symdoc watch` mounts it on
// metrics.listen when configured.
package metrics
