// Package engine runs sandboxed processes and captures their outcome.
package engine

import (
	"context"
	"time"

	"codejudge/internal/judge/sandbox/result"
	"codejudge/internal/judge/sandbox/spec"
	appErr "codejudge/pkg/errors"
)

const (
	defaultMaxOutputBytes int64 = 1 << 20
	defaultWaitDelay            = 500 * time.Millisecond
	maxDurationMs               = int64(1<<63-1) / int64(time.Millisecond)
)

// Engine executes a RunSpec inside an isolated sandbox.
// Process failures are reported through the Outcome; the error is reserved
// for failures to start the process at all.
type Engine interface {
	Run(ctx context.Context, runSpec spec.RunSpec) (result.Outcome, error)
}

// Config controls process engine behavior.
type Config struct {
	// HelperPath prefixes every command with the sandbox-init helper when set.
	HelperPath     string
	SeccompProfile string
	// CgroupRoot enables a per-run cgroup v2 leaf for memory and pid limits.
	CgroupRoot     string
	MaxOutputBytes int64
	WaitDelay      time.Duration
	// InheritEnv passes the judge's environment to children. Only the docker
	// supervisor sets it; user programs get a minimal environment.
	InheritEnv bool
}

func validateRunSpec(runSpec spec.RunSpec) error {
	if runSpec.WorkDir == "" {
		return appErr.ValidationError("workDir", "required")
	}
	if len(runSpec.Cmd) == 0 {
		return appErr.ValidationError("cmd", "required")
	}
	if runSpec.Limits.WallTimeMs < 0 {
		return appErr.ValidationError("wallTimeMs", "must be non-negative")
	}
	return nil
}

func durationFromMs(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	if ms > maxDurationMs {
		ms = maxDurationMs
	}
	return time.Duration(ms) * time.Millisecond
}
