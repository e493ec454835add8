// Package admission decides whether a new execution may start now.
package admission

import (
	"context"
	"fmt"
	"time"

	"codejudge/internal/judge/sandbox/observer"
	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMaxConcurrent = 4
	defaultAcquireWait   = 2 * time.Second
)

// Config controls admission limits. Zero thresholds disable that check.
type Config struct {
	MaxConcurrent int     `yaml:"maxConcurrent"`
	AcquireWaitMs int64   `yaml:"acquireWaitMs"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
	Burst         int     `yaml:"burst"`
	// MaxLoadPerCPU rejects when the one minute load per CPU is above it.
	MaxLoadPerCPU float64 `yaml:"maxLoadPerCpu"`
	// MinMemAvailable rejects when the available memory ratio drops below it.
	MinMemAvailable float64 `yaml:"minMemAvailable"`
}

// Gate admits executions by rate, host load and a bounded number of slots.
// Rejections are immediate errors; callers are expected to retry.
type Gate struct {
	cfg     Config
	slots   chan struct{}
	limiter *rate.Limiter
	probe   LoadProbe
	wait    time.Duration
	metrics observer.MetricsRecorder
}

// NewGate creates a gate. probe may be nil to skip load checks.
func NewGate(cfg Config, probe LoadProbe, metrics observer.MetricsRecorder) *Gate {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	wait := defaultAcquireWait
	if cfg.AcquireWaitMs > 0 {
		wait = time.Duration(cfg.AcquireWaitMs) * time.Millisecond
	}
	g := &Gate{
		cfg:     cfg,
		slots:   make(chan struct{}, cfg.MaxConcurrent),
		probe:   probe,
		wait:    wait,
		metrics: observer.OrNoop(metrics),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RatePerSecond*2) + 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return g
}

// Acquire reserves a slot. The returned release func must be called once the execution ends.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if g.limiter != nil && !g.limiter.Allow() {
		g.metrics.ObserveRejection(ctx, "rate")
		return nil, appErr.New(appErr.TooManyRequests).WithMessage("execution rate limit exceeded")
	}
	if err := g.checkLoad(ctx); err != nil {
		return nil, err
	}

	timer := time.NewTimer(g.wait)
	defer timer.Stop()
	select {
	case g.slots <- struct{}{}:
		return g.release, nil
	case <-ctx.Done():
		return nil, appErr.Wrapf(ctx.Err(), appErr.Timeout, "wait for execution slot canceled")
	case <-timer.C:
		g.metrics.ObserveRejection(ctx, "slots")
		return nil, appErr.New(appErr.JudgeQueueFull).WithMessage("worker pool is full")
	}
}

// InUse reports how many slots are held.
func (g *Gate) InUse() int {
	return len(g.slots)
}

// Capacity reports the slot count.
func (g *Gate) Capacity() int {
	return cap(g.slots)
}

func (g *Gate) release() {
	select {
	case <-g.slots:
	default:
	}
}

func (g *Gate) checkLoad(ctx context.Context) error {
	if g.probe == nil || (g.cfg.MaxLoadPerCPU <= 0 && g.cfg.MinMemAvailable <= 0) {
		return nil
	}
	sample, err := g.probe.Sample()
	if err != nil {
		// An unreadable probe must not take the judge down.
		logger.Warn(ctx, "sample host load failed", zap.Error(err))
		return nil
	}
	if g.cfg.MaxLoadPerCPU > 0 && sample.LoadPerCPU > g.cfg.MaxLoadPerCPU {
		g.metrics.ObserveRejection(ctx, "cpu")
		return appErr.New(appErr.InsufficientResources).
			WithMessage(fmt.Sprintf("insufficient resources: load per cpu %.2f above %.2f", sample.LoadPerCPU, g.cfg.MaxLoadPerCPU))
	}
	if g.cfg.MinMemAvailable > 0 && sample.MemAvailableRatio < g.cfg.MinMemAvailable {
		g.metrics.ObserveRejection(ctx, "memory")
		return appErr.New(appErr.InsufficientResources).
			WithMessage(fmt.Sprintf("insufficient resources: available memory %.0f%% below %.0f%%", sample.MemAvailableRatio*100, g.cfg.MinMemAvailable*100))
	}
	return nil
}
