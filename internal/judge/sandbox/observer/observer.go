// Package observer defines metrics hooks for sandbox execution.
package observer

import "context"

// MetricsRecorder records sandbox metrics.
type MetricsRecorder interface {
	ObserveCompile(ctx context.Context, languageID string, ok bool, timeMs int64)
	ObserveRun(ctx context.Context, languageID string, status string, timeMs int64, memoryKB int64)
	ObserveVerdict(ctx context.Context, backend string, status string, timeMs int64)
	ObserveRejection(ctx context.Context, reason string)
}

// NoopMetricsRecorder drops every observation.
type NoopMetricsRecorder struct{}

func (NoopMetricsRecorder) ObserveCompile(ctx context.Context, languageID string, ok bool, timeMs int64) {
}

func (NoopMetricsRecorder) ObserveRun(ctx context.Context, languageID string, status string, timeMs int64, memoryKB int64) {
}

func (NoopMetricsRecorder) ObserveVerdict(ctx context.Context, backend string, status string, timeMs int64) {
}

func (NoopMetricsRecorder) ObserveRejection(ctx context.Context, reason string) {}

// OrNoop returns m, or a no-op recorder when m is nil.
func OrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return NoopMetricsRecorder{}
	}
	return m
}
