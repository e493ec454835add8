package executor

import (
	"context"
	"fmt"
	"time"

	"codejudge/internal/judge/language"
	"codejudge/internal/judge/model"
	"codejudge/internal/judge/prepare"
	"codejudge/internal/judge/sandbox/observer"
	"codejudge/internal/judge/sandbox/result"
	"codejudge/internal/judge/verdict"
	"codejudge/internal/judge/workspace"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

// Compiler runs the optional compile step inside a workspace.
type Compiler interface {
	CompileIfNeeded(ctx context.Context, lang language.Spec, workDir string) (result.Outcome, error)
}

// CaseEvaluator runs test cases against a compiled workspace.
type CaseEvaluator interface {
	Evaluate(ctx context.Context, lang language.Spec, testCases []model.TestCase, workDir string) []model.TestCaseResult
}

// LocalExecutor runs the pipeline on this host through a sandbox engine.
type LocalExecutor struct {
	name      string
	languages *language.Registry
	preparer  *prepare.Preparer
	compiler  Compiler
	evaluator CaseEvaluator
	workspace *workspace.Manager
	metrics   observer.MetricsRecorder
}

// LocalDeps groups the collaborators of a LocalExecutor.
type LocalDeps struct {
	Languages *language.Registry
	Preparer  *prepare.Preparer
	Compiler  Compiler
	Evaluator CaseEvaluator
	Workspace *workspace.Manager
	Metrics   observer.MetricsRecorder
}

// NewLocalExecutor creates a local executor reported under name.
func NewLocalExecutor(name string, deps LocalDeps) *LocalExecutor {
	return &LocalExecutor{
		name:      name,
		languages: deps.Languages,
		preparer:  deps.Preparer,
		compiler:  deps.Compiler,
		evaluator: deps.Evaluator,
		workspace: deps.Workspace,
		metrics:   observer.OrNoop(deps.Metrics),
	}
}

// Name returns the backend name.
func (e *LocalExecutor) Name() string {
	return e.name
}

// Execute screens, prepares, compiles and evaluates one request.
func (e *LocalExecutor) Execute(ctx context.Context, req model.ExecutionRequest) (v model.ExecutionVerdict) {
	start := time.Now()
	requested := len(req.TestCases)
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "execution panicked", zap.Any("panic", r), zap.Stack("stack"))
			v = verdict.Rejected(fmt.Sprintf("internal error: %v", r), requested)
		}
		e.metrics.ObserveVerdict(ctx, e.name, string(v.Status), time.Since(start).Milliseconds())
	}()

	if err := e.preparer.Screen(req.SourceCode); err != nil {
		return verdict.CompileError(errorMessage(err), requested)
	}
	lang, err := e.languages.Resolve(req.Language)
	if err != nil {
		return verdict.CompileError(errorMessage(err), requested)
	}
	problemID := e.preparer.ResolveProblemID(req.ProblemID, req.TestCases)
	source, err := e.preparer.Prepare(req.SourceCode, lang.ID, problemID)
	if err != nil {
		logger.Info(ctx, "prepare source failed", zap.String("language", lang.ID), zap.Int64("problem_id", problemID), zap.Error(err))
		return verdict.CompileError(errorMessage(err), requested)
	}
	lang = lang.WithMainClass(prepare.MainClass(source, lang.ID))

	err = e.workspace.Scope(ctx, func(dir string) error {
		if err := workspace.WriteFile(dir, lang.SourceName(), source); err != nil {
			return err
		}

		compiled, err := e.compiler.CompileIfNeeded(ctx, lang, dir)
		if err != nil {
			return err
		}
		if !compiled.ExitSuccess {
			v = verdict.CompileError(compileMessage(compiled), requested)
			return nil
		}

		results := e.evaluator.Evaluate(ctx, lang, req.TestCases, dir)
		v = verdict.Aggregate(results, requested)
		return nil
	})
	if err != nil {
		logger.Error(ctx, "local execution failed", zap.String("backend", e.name), zap.String("language", lang.ID), zap.Error(err))
		return verdict.Rejected("execution error: "+errorMessage(err), requested)
	}

	logger.Info(ctx, "execution finished",
		zap.String("backend", e.name),
		zap.String("language", lang.ID),
		zap.String("status", string(v.Status)),
		zap.Int("passed", v.PassedTestCases),
		zap.Int("total", v.TotalTestCases),
		zap.Duration("elapsed", time.Since(start)),
	)
	return v
}

func compileMessage(outcome result.Outcome) string {
	if outcome.TimedOut {
		return "Compilation timed out"
	}
	if msg := outcome.Message(); msg != "" {
		return msg
	}
	return fmt.Sprintf("compiler exited with code %d", outcome.ExitCode)
}
