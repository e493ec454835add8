package observer

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "codejudge"

var durationBuckets = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

// PrometheusRecorder exports sandbox metrics through a prometheus registerer.
type PrometheusRecorder struct {
	compileTotal    *prometheus.CounterVec
	compileDuration *prometheus.HistogramVec
	runTotal        *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	runMemory       *prometheus.HistogramVec
	verdictTotal    *prometheus.CounterVec
	verdictDuration *prometheus.HistogramVec
	rejections      *prometheus.CounterVec
}

// NewPrometheusRecorder registers the judge metrics on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		compileTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compile_total",
			Help:      "Total number of compilations",
		}, []string{"language", "ok"}),
		compileDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "compile_duration_ms",
			Help:      "Compilation duration in milliseconds",
			Buckets:   durationBuckets,
		}, []string{"language"}),
		runTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "testcase_total",
			Help:      "Total number of evaluated test cases",
		}, []string{"language", "status"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "testcase_duration_ms",
			Help:      "Test case run duration in milliseconds",
			Buckets:   durationBuckets,
		}, []string{"language"}),
		runMemory: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "testcase_memory_kb",
			Help:      "Peak memory per test case in KB, when reported",
			Buckets:   []float64{1024, 4096, 16384, 65536, 131072, 262144},
		}, []string{"language"}),
		verdictTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "executions_total",
			Help:      "Total number of executions by final status",
		}, []string{"backend", "status"}),
		verdictDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "execution_duration_ms",
			Help:      "End to end execution duration in milliseconds",
			Buckets:   durationBuckets,
		}, []string{"backend"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "admission_rejections_total",
			Help:      "Requests rejected before execution",
		}, []string{"reason"}),
	}
}

func (p *PrometheusRecorder) ObserveCompile(ctx context.Context, languageID string, ok bool, timeMs int64) {
	p.compileTotal.WithLabelValues(languageID, strconv.FormatBool(ok)).Inc()
	p.compileDuration.WithLabelValues(languageID).Observe(float64(timeMs))
}

func (p *PrometheusRecorder) ObserveRun(ctx context.Context, languageID string, status string, timeMs int64, memoryKB int64) {
	p.runTotal.WithLabelValues(languageID, status).Inc()
	p.runDuration.WithLabelValues(languageID).Observe(float64(timeMs))
	if memoryKB > 0 {
		p.runMemory.WithLabelValues(languageID).Observe(float64(memoryKB))
	}
}

func (p *PrometheusRecorder) ObserveVerdict(ctx context.Context, backend string, status string, timeMs int64) {
	p.verdictTotal.WithLabelValues(backend, status).Inc()
	p.verdictDuration.WithLabelValues(backend).Observe(float64(timeMs))
}

func (p *PrometheusRecorder) ObserveRejection(ctx context.Context, reason string) {
	p.rejections.WithLabelValues(reason).Inc()
}
