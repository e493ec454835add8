package observer

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)
	ctx := context.Background()

	rec.ObserveCompile(ctx, "cpp", false, 120)
	rec.ObserveRun(ctx, "python", "ACCEPTED", 15, 0)
	rec.ObserveRun(ctx, "python", "ACCEPTED", 20, 2048)
	rec.ObserveVerdict(ctx, "container", "ACCEPTED", 900)
	rec.ObserveRejection(ctx, "rate")

	if got := testutil.ToFloat64(rec.compileTotal.WithLabelValues("cpp", "false")); got != 1 {
		t.Fatalf("expected 1 failed compile, got %v", got)
	}
	if got := testutil.ToFloat64(rec.runTotal.WithLabelValues("python", "ACCEPTED")); got != 2 {
		t.Fatalf("expected 2 runs, got %v", got)
	}
	if got := testutil.ToFloat64(rec.verdictTotal.WithLabelValues("container", "ACCEPTED")); got != 1 {
		t.Fatalf("expected 1 verdict, got %v", got)
	}
	if got := testutil.ToFloat64(rec.rejections.WithLabelValues("rate")); got != 1 {
		t.Fatalf("expected 1 rejection, got %v", got)
	}
	if n := testutil.CollectAndCount(rec.runMemory); n != 1 {
		t.Fatalf("memory histogram should only see reported samples, got %d series", n)
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopMetricsRecorder); !ok {
		t.Fatalf("expected noop recorder")
	}
	rec := NewPrometheusRecorder(prometheus.NewRegistry())
	if OrNoop(rec) != MetricsRecorder(rec) {
		t.Fatalf("expected recorder to pass through")
	}
}
