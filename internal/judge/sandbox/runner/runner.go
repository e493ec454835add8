// Package runner turns language recipes into sandbox runs.
package runner

import (
	"context"

	"codejudge/internal/judge/language"
	"codejudge/internal/judge/sandbox/engine"
	"codejudge/internal/judge/sandbox/observer"
	"codejudge/internal/judge/sandbox/result"
	"codejudge/internal/judge/sandbox/spec"
	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultCompileTimeoutMs int64 = 30000

// Config holds limits shared by every run.
type Config struct {
	CompileTimeoutMs int64
	MemoryMB         int64
	PIDs             int64
	OutputMB         int64
}

// Runner compiles and runs programs through a sandbox engine.
type Runner struct {
	engine  engine.Engine
	cfg     Config
	metrics observer.MetricsRecorder
}

// NewRunner creates a runner without metrics.
func NewRunner(eng engine.Engine, cfg Config) *Runner {
	return NewRunnerWithObserver(eng, cfg, nil)
}

// NewRunnerWithObserver creates a runner that reports compile metrics.
func NewRunnerWithObserver(eng engine.Engine, cfg Config, metrics observer.MetricsRecorder) *Runner {
	if cfg.CompileTimeoutMs <= 0 {
		cfg.CompileTimeoutMs = defaultCompileTimeoutMs
	}
	return &Runner{engine: eng, cfg: cfg, metrics: observer.OrNoop(metrics)}
}

// CompileIfNeeded compiles the source in workDir when the language has a compile step.
// Interpreted languages succeed immediately with zero elapsed time.
func (r *Runner) CompileIfNeeded(ctx context.Context, lang language.Spec, workDir string) (result.Outcome, error) {
	if !lang.CompileEnabled() {
		return result.Outcome{ExitSuccess: true}, nil
	}
	if err := validateWorkDir(workDir); err != nil {
		return result.Outcome{}, err
	}
	args, err := lang.CompileArgs()
	if err != nil {
		return result.Outcome{}, err
	}

	timeoutMs := lang.CompileTimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = r.cfg.CompileTimeoutMs
	}
	outcome, err := r.engine.Run(ctx, spec.RunSpec{
		WorkDir: workDir,
		Cmd:     args,
		Env:     lang.Env,
		Image:   lang.Image,
		Limits:  r.limits(timeoutMs),
	})
	if err != nil {
		return result.Outcome{}, err
	}
	r.metrics.ObserveCompile(ctx, lang.ID, outcome.ExitSuccess, outcome.ElapsedMs)
	if !outcome.ExitSuccess {
		logger.Debug(ctx, "compile failed",
			zap.String("language", lang.ID),
			zap.Int("exit_code", outcome.ExitCode),
			zap.Bool("timed_out", outcome.TimedOut),
		)
	}
	return outcome, nil
}

// Run executes the language's run command once with input on stdin.
func (r *Runner) Run(ctx context.Context, lang language.Spec, workDir, input string, timeoutMs int64) (result.Outcome, error) {
	if err := validateWorkDir(workDir); err != nil {
		return result.Outcome{}, err
	}
	if timeoutMs <= 0 {
		return result.Outcome{}, appErr.ValidationError("timeoutMs", "must be positive")
	}
	args, err := lang.RunArgs()
	if err != nil {
		return result.Outcome{}, err
	}
	return r.engine.Run(ctx, spec.RunSpec{
		WorkDir: workDir,
		Cmd:     args,
		Env:     lang.Env,
		Stdin:   input,
		Image:   lang.Image,
		Limits:  r.limits(timeoutMs),
	})
}

func (r *Runner) limits(wallMs int64) spec.ResourceLimit {
	return spec.ResourceLimit{
		WallTimeMs: wallMs,
		MemoryMB:   r.cfg.MemoryMB,
		PIDs:       r.cfg.PIDs,
		OutputMB:   r.cfg.OutputMB,
	}
}

func validateWorkDir(workDir string) error {
	if workDir == "" {
		return appErr.ValidationError("workDir", "required")
	}
	return nil
}
