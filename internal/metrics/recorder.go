package metrics

import "time"

// ResultLabel enumerates per-page result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel enumerates final build outcomes.
type BuildOutcomeLabel string

const (
	BuildSuccess BuildOutcomeLabel = "success"
	BuildPartial BuildOutcomeLabel = "partial"
	BuildFailed  BuildOutcomeLabel = "failed"
)

// Recorder defines observability hooks for page renders and whole builds.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// ObserveRenderDuration records one page render. mode is "page" for
	// standalone emits, "file" for folder pages and "index" for listings.
	ObserveRenderDuration(mode string, d time.Duration)
	IncPageResult(mode string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRenderDuration(string, time.Duration) {}
func (NoopRecorder) IncPageResult(string, ResultLabel)           {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)          {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)           {}
