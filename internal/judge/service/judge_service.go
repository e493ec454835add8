package service

import (
	"context"
	"fmt"
	"time"

	"codejudge/internal/judge/executor"
	"codejudge/internal/judge/model"
	"codejudge/internal/judge/repository"
	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/contextkey"
	"codejudge/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultExecuteTimeout = 5 * time.Minute
	defaultStatusTimeout  = 2 * time.Second
)

// StatusStore keeps pollable execution status.
type StatusStore interface {
	Create(ctx context.Context, status model.RunStatus) error
	Save(ctx context.Context, status model.RunStatus) error
	Get(ctx context.Context, executionID string) (model.RunStatus, error)
	IncrVerdict(ctx context.Context, backend string, status model.ExecutionStatus) error
	VerdictCounts(ctx context.Context, backend string) (map[string]int64, error)
}

// Admitter bounds how many executions run at once.
type Admitter interface {
	Acquire(ctx context.Context) (func(), error)
	InUse() int
	Capacity() int
}

// ProblemCatalog looks up problems supplied by the problem service.
type ProblemCatalog interface {
	Problem(problemID int64) (model.ProblemSpec, bool)
}

// Archiver stores finished executions.
type Archiver interface {
	Save(ctx context.Context, record repository.ArchiveRecord) (string, error)
}

// Service runs executions synchronously and tracks their lifecycle.
type Service struct {
	executor       executor.Executor
	gate           Admitter
	statusRepo     StatusStore
	publisher      repository.StatusEventPublisher
	archive        Archiver
	problems       ProblemCatalog
	executeTimeout time.Duration
	statusTimeout  time.Duration
}

// Config holds service dependencies and settings.
// Only Executor is required; the rest are skipped when nil.
type Config struct {
	Executor       executor.Executor
	Gate           Admitter
	StatusRepo     StatusStore
	Publisher      repository.StatusEventPublisher
	Archive        Archiver
	Problems       ProblemCatalog
	ExecuteTimeout time.Duration
	StatusTimeout  time.Duration
}

// NewService creates a new judge service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.ExecuteTimeout <= 0 {
		cfg.ExecuteTimeout = defaultExecuteTimeout
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = defaultStatusTimeout
	}
	return &Service{
		executor:       cfg.Executor,
		gate:           cfg.Gate,
		statusRepo:     cfg.StatusRepo,
		publisher:      cfg.Publisher,
		archive:        cfg.Archive,
		problems:       cfg.Problems,
		executeTimeout: cfg.ExecuteTimeout,
		statusTimeout:  cfg.StatusTimeout,
	}, nil
}

// withProblemCases fills in the test cases of a registered problem when the
// request carries none.
func (s *Service) withProblemCases(req model.ExecutionRequest) model.ExecutionRequest {
	if len(req.TestCases) > 0 || req.ProblemID == 0 || s.problems == nil {
		return req
	}
	problem, ok := s.problems.Problem(req.ProblemID)
	if !ok {
		return req
	}
	return problem.Request(req.SourceCode, req.Language)
}

// Backend returns the name of the configured executor.
func (s *Service) Backend() string {
	return s.executor.Name()
}

// Execute admits, runs and records one execution.
// The returned error is set only when the request was refused before running.
func (s *Service) Execute(ctx context.Context, req model.ExecutionRequest) (model.RunStatus, error) {
	req = s.withProblemCases(req)
	if len(req.TestCases) == 0 {
		return model.RunStatus{}, appErr.New(appErr.TestCasesEmpty).WithMessage("at least one test case is required")
	}

	executionID := uuid.NewString()
	// The client may go away; the execution still has to finish and be recorded.
	ctx = context.WithValue(context.WithoutCancel(ctx), contextkey.ExecutionID, executionID)

	status := model.RunStatus{
		ExecutionID: executionID,
		State:       model.RunPending,
		Language:    req.Language,
		Backend:     s.executor.Name(),
		TotalTests:  len(req.TestCases),
		Timestamps:  model.Timestamps{ReceivedAt: time.Now().Unix()},
	}
	s.createStatus(ctx, status)

	if s.gate != nil {
		release, err := s.gate.Acquire(ctx)
		if err != nil {
			return s.handleFailure(ctx, status, err), err
		}
		defer release()
	}

	status.State = model.RunRunning
	s.persistStatus(ctx, status)

	logger.Info(ctx, "execution started",
		zap.String("language", req.Language),
		zap.String("backend", status.Backend),
		zap.Int("test_cases", len(req.TestCases)),
	)
	start := time.Now()

	ctxExec, cancel := context.WithTimeout(ctx, s.executeTimeout)
	verdict := s.executor.Execute(ctxExec, req)
	cancel()

	status.State = model.RunFinished
	status.Verdict = &verdict
	status.Timestamps.FinishedAt = time.Now().Unix()
	s.persistStatus(ctx, status)

	logger.Info(ctx, "execution finished",
		zap.String("status", string(verdict.Status)),
		zap.Int("passed", verdict.PassedTestCases),
		zap.Int("total", verdict.TotalTestCases),
		zap.Duration("elapsed", time.Since(start)),
	)

	s.recordVerdict(ctx, status, req)
	s.publishFinal(ctx, status)
	return status, nil
}
