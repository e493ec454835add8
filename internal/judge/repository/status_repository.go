package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"codejudge/internal/common/cache"
	"codejudge/internal/judge/model"
	appErr "codejudge/pkg/errors"
)

const (
	statusKeyPrefix = "judge:status:"
	statsKeyPrefix  = "judge:stats:"
)

// StatusRepository keeps pollable execution status in the cache.
type StatusRepository struct {
	cache cache.Cache
	TTL   time.Duration
}

// NewStatusRepository creates a new repository.
func NewStatusRepository(cacheClient cache.Cache, ttl time.Duration) *StatusRepository {
	return &StatusRepository{cache: cacheClient, TTL: ttl}
}

// Get returns status by execution id.
func (r *StatusRepository) Get(ctx context.Context, executionID string) (model.RunStatus, error) {
	if executionID == "" {
		return model.RunStatus{}, appErr.ValidationError("execution_id", "required")
	}
	if r.cache == nil {
		return model.RunStatus{}, appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	val, err := r.cache.Get(ctx, statusKeyPrefix+executionID)
	if err != nil {
		return model.RunStatus{}, appErr.Wrapf(err, appErr.CacheError, "load status failed")
	}
	if val == "" {
		return model.RunStatus{}, appErr.New(appErr.ExecutionNotFound).WithMessage("execution status not found")
	}
	var status model.RunStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return model.RunStatus{}, appErr.Wrapf(err, appErr.CacheError, "decode status failed")
	}
	return status, nil
}

// Create stores the first status of an execution and fails if the id is taken.
func (r *StatusRepository) Create(ctx context.Context, status model.RunStatus) error {
	data, err := r.encode(status)
	if err != nil {
		return err
	}
	ok, err := r.cache.SetNX(ctx, statusKeyPrefix+status.ExecutionID, data, cache.JitterTTL(r.TTL))
	if err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "create status failed")
	}
	if !ok {
		return appErr.New(appErr.InvalidParams).WithMessagef("execution %s already exists", status.ExecutionID)
	}
	return nil
}

// Save overwrites the status of an execution.
func (r *StatusRepository) Save(ctx context.Context, status model.RunStatus) error {
	data, err := r.encode(status)
	if err != nil {
		return err
	}
	if err := r.cache.Set(ctx, statusKeyPrefix+status.ExecutionID, data, cache.JitterTTL(r.TTL)); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "store status failed")
	}
	return nil
}

// IncrVerdict counts a terminal verdict for a backend.
func (r *StatusRepository) IncrVerdict(ctx context.Context, backend string, status model.ExecutionStatus) error {
	if r.cache == nil {
		return appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	if _, err := r.cache.HIncrBy(ctx, statsKeyPrefix+backend, string(status), 1); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "count verdict failed")
	}
	return nil
}

// VerdictCounts returns the verdict counters of a backend.
func (r *StatusRepository) VerdictCounts(ctx context.Context, backend string) (map[string]int64, error) {
	if r.cache == nil {
		return nil, appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	raw, err := r.cache.HGetAll(ctx, statsKeyPrefix+backend)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CacheError, "load verdict counts failed")
	}
	counts := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[k] = n
	}
	return counts, nil
}

func (r *StatusRepository) encode(status model.RunStatus) (string, error) {
	if status.ExecutionID == "" {
		return "", appErr.ValidationError("execution_id", "required")
	}
	if r.cache == nil {
		return "", appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	data, err := json.Marshal(status)
	if err != nil {
		return "", fmt.Errorf("marshal status failed: %w", err)
	}
	return string(data), nil
}
