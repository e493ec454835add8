// Package evaluator runs test cases and classifies each outcome.
package evaluator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"codejudge/internal/judge/language"
	"codejudge/internal/judge/model"
	"codejudge/internal/judge/sandbox/observer"
	"codejudge/internal/judge/sandbox/result"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultTimeoutMs    int64 = 5000
	defaultMaxTimeoutMs int64 = 60000
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Sandbox runs the compiled program once per test case.
type Sandbox interface {
	Run(ctx context.Context, lang language.Spec, workDir, input string, timeoutMs int64) (result.Outcome, error)
}

// Config controls evaluation defaults.
type Config struct {
	DefaultTimeoutMs int64
	// MaxTimeoutMs caps per-case limits.
	MaxTimeoutMs int64
}

// Evaluator runs test cases strictly in order.
type Evaluator struct {
	sandbox Sandbox
	cfg     Config
	metrics observer.MetricsRecorder
}

// NewEvaluator creates an evaluator.
func NewEvaluator(sandbox Sandbox, cfg Config, metrics observer.MetricsRecorder) *Evaluator {
	if cfg.DefaultTimeoutMs <= 0 {
		cfg.DefaultTimeoutMs = defaultTimeoutMs
	}
	if cfg.MaxTimeoutMs <= 0 {
		cfg.MaxTimeoutMs = defaultMaxTimeoutMs
	}
	if cfg.DefaultTimeoutMs > cfg.MaxTimeoutMs {
		cfg.MaxTimeoutMs = cfg.DefaultTimeoutMs
	}
	return &Evaluator{sandbox: sandbox, cfg: cfg, metrics: observer.OrNoop(metrics)}
}

// Evaluate runs each case and stops after the first failed hidden case
// or a program that cannot be started. Unevaluated cases are omitted.
func (e *Evaluator) Evaluate(ctx context.Context, lang language.Spec, testCases []model.TestCase, workDir string) []model.TestCaseResult {
	results := make([]model.TestCaseResult, 0, len(testCases))
	for i, tc := range testCases {
		timeoutMs := tc.TimeLimitMs
		if timeoutMs <= 0 {
			timeoutMs = e.cfg.DefaultTimeoutMs
		}
		if timeoutMs > e.cfg.MaxTimeoutMs {
			timeoutMs = e.cfg.MaxTimeoutMs
		}

		outcome, err := e.sandbox.Run(ctx, lang, workDir, tc.Input, timeoutMs)
		if err != nil {
			logger.Warn(ctx, "run test case failed", zap.String("test_id", tc.ID), zap.Error(err))
			res := baseResult(tc)
			res.Status = model.StatusRuntimeError
			res.ErrorMessage = "failed to run program: " + err.Error()
			results = append(results, res)
			e.metrics.ObserveRun(ctx, lang.ID, string(res.Status), 0, 0)
			break
		}

		res := Classify(tc, outcome)
		results = append(results, res)
		e.metrics.ObserveRun(ctx, lang.ID, string(res.Status), outcome.ElapsedMs, outcome.MemoryKB)
		logger.Debug(ctx, "test case evaluated",
			zap.Int("index", i+1),
			zap.String("test_id", tc.ID),
			zap.String("status", string(res.Status)),
			zap.Int64("runtime_ms", res.RuntimeMs),
		)

		if !res.Passed && tc.IsHidden {
			break
		}
	}
	return results
}

// Classify maps one sandbox outcome onto a test case result.
// A non-zero exit is a runtime error even when stdout matches.
func Classify(tc model.TestCase, outcome result.Outcome) model.TestCaseResult {
	res := baseResult(tc)
	res.ActualOutput = strings.TrimSpace(normalizeNewlines(outcome.Stdout))
	res.RuntimeMs = outcome.ElapsedMs
	res.MemoryMB = float64(outcome.MemoryKB) / 1024

	switch {
	case outcome.TimedOut:
		res.Status = model.StatusTimeLimitExceeded
		res.ErrorMessage = "Time limit exceeded"
	case outcome.OOMKilled:
		res.Status = model.StatusMemoryLimitExceeded
		res.ErrorMessage = "Memory limit exceeded"
	case !outcome.ExitSuccess:
		res.Status = model.StatusRuntimeError
		res.ErrorMessage = runtimeMessage(outcome)
	case OutputsMatch(tc.ExpectedOutput, outcome.Stdout):
		res.Status = model.StatusAccepted
		res.Passed = true
	default:
		res.Status = model.StatusWrongAnswer
		if outcome.Truncated {
			res.ErrorMessage = "Output limit exceeded"
		}
	}
	return res
}

// Normalize unifies line endings, trims the ends and collapses every
// whitespace run to a single space.
func Normalize(s string) string {
	s = strings.TrimSpace(normalizeNewlines(s))
	return whitespaceRun.ReplaceAllString(s, " ")
}

// OutputsMatch compares expected and actual output after normalization.
func OutputsMatch(expected, actual string) bool {
	return Normalize(expected) == Normalize(actual)
}

func baseResult(tc model.TestCase) model.TestCaseResult {
	return model.TestCaseResult{
		TestCaseID:     tc.ID,
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
	}
}

func runtimeMessage(outcome result.Outcome) string {
	if msg := strings.TrimSpace(outcome.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("process exited with code %d", outcome.ExitCode)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
