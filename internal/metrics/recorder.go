package metrics

import "time"

// ResultLabel enumerates page result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeWarning  BuildOutcomeLabel = "warning"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// ExtractionLabel classifies one extractor invocation.
type ExtractionLabel string

const (
	ExtractionSuccess   ExtractionLabel = "success"
	ExtractionFailed    ExtractionLabel = "failed"
	ExtractionMalformed ExtractionLabel = "malformed"
	ExtractionNotFound  ExtractionLabel = "not_found"
)

// Recorder defines observability hooks for builds and extractions.
// Implementations must be safe for concurrent use; read-phase workers share one.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncPageResult(result ResultLabel)
	ObserveExtractionDuration(d time.Duration)
	IncExtraction(result ExtractionLabel)
	IncCacheHit()
	AddStalePages(n int)
	IncUnresolvedReference()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) IncPageResult(ResultLabel)                  {}
func (NoopRecorder) ObserveExtractionDuration(time.Duration)    {}
func (NoopRecorder) IncExtraction(ExtractionLabel)              {}
func (NoopRecorder) IncCacheHit()                               {}
func (NoopRecorder) AddStalePages(int)                          {}
func (NoopRecorder) IncUnresolvedReference()                    {}
