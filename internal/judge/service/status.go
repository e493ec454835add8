package service

import (
	"context"
	"time"

	"codejudge/internal/judge/executor"
	"codejudge/internal/judge/model"
	"codejudge/internal/judge/repository"
	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

// BackendInfo describes the active execution backend.
type BackendInfo struct {
	Name          string           `json:"name"`
	Method        string           `json:"method"`
	SlotsInUse    int              `json:"slotsInUse"`
	SlotsTotal    int              `json:"slotsTotal"`
	VerdictCounts map[string]int64 `json:"verdictCounts,omitempty"`
}

// Get returns the stored status of an execution.
func (s *Service) Get(ctx context.Context, executionID string) (model.RunStatus, error) {
	if s.statusRepo == nil {
		return model.RunStatus{}, appErr.New(appErr.ServiceUnavailable).WithMessage("status store is not configured")
	}
	ctxStatus, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()
	return s.statusRepo.Get(ctxStatus, executionID)
}

// BackendInfo reports the backend, its slot usage and verdict counters.
func (s *Service) BackendInfo(ctx context.Context) BackendInfo {
	name := s.executor.Name()
	info := BackendInfo{Name: name, Method: executor.Describe(name)}
	if s.gate != nil {
		info.SlotsInUse = s.gate.InUse()
		info.SlotsTotal = s.gate.Capacity()
	}
	if s.statusRepo != nil {
		ctxStatus, cancel := context.WithTimeout(ctx, s.statusTimeout)
		defer cancel()
		counts, err := s.statusRepo.VerdictCounts(ctxStatus, name)
		if err != nil {
			logger.Warn(ctx, "load verdict counts failed", zap.Error(err))
		} else {
			info.VerdictCounts = counts
		}
	}
	return info
}

func (s *Service) createStatus(ctx context.Context, status model.RunStatus) {
	if s.statusRepo == nil {
		return
	}
	ctxStatus, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()
	if err := s.statusRepo.Create(ctxStatus, status); err != nil {
		logger.Warn(ctx, "create status failed", zap.Error(err))
	}
}

func (s *Service) persistStatus(ctx context.Context, status model.RunStatus) {
	if s.statusRepo == nil {
		return
	}
	ctxStatus, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()
	if err := s.statusRepo.Save(ctxStatus, status); err != nil {
		logger.Warn(ctx, "update status failed", zap.String("state", string(status.State)), zap.Error(err))
	}
}

func (s *Service) handleFailure(ctx context.Context, status model.RunStatus, err error) model.RunStatus {
	code := appErr.GetCode(err)
	status.State = model.RunFailed
	status.ErrorCode = int(code)
	status.ErrorMessage = err.Error()
	status.Timestamps.FinishedAt = time.Now().Unix()
	s.persistStatus(ctx, status)

	logger.Warn(ctx, "execution refused", zap.Int("code", int(code)), zap.Error(err))
	s.publishFinal(ctx, status)
	return status
}

func (s *Service) recordVerdict(ctx context.Context, status model.RunStatus, req model.ExecutionRequest) {
	if status.Verdict == nil {
		return
	}
	if s.statusRepo != nil {
		ctxStatus, cancel := context.WithTimeout(ctx, s.statusTimeout)
		if err := s.statusRepo.IncrVerdict(ctxStatus, status.Backend, status.Verdict.Status); err != nil {
			logger.Warn(ctx, "count verdict failed", zap.Error(err))
		}
		cancel()
	}
	if s.archive != nil {
		key, err := s.archive.Save(ctx, repository.ArchiveRecord{
			ExecutionID: status.ExecutionID,
			Backend:     status.Backend,
			Request:     req,
			Verdict:     *status.Verdict,
			ArchivedAt:  status.Timestamps.FinishedAt,
		})
		if err != nil {
			logger.Warn(ctx, "archive execution failed", zap.Error(err))
		} else {
			logger.Debug(ctx, "execution archived", zap.String("key", key))
		}
	}
}

func (s *Service) publishFinal(ctx context.Context, status model.RunStatus) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishFinalStatus(ctx, status); err != nil {
		logger.Warn(ctx, "publish final status failed", zap.Error(err))
	}
}
