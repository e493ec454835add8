// Package executor runs a whole execution request on one backend.
package executor

import (
	"context"
	"strings"

	"codejudge/internal/judge/model"
	appErr "codejudge/pkg/errors"
)

// Backend names.
const (
	BackendContainer = "container"
	BackendNative    = "native"
	BackendRemote    = "remote"
)

// Executor turns a request into a verdict. Execute never returns an error:
// every failure is folded into the verdict.
type Executor interface {
	Execute(ctx context.Context, req model.ExecutionRequest) model.ExecutionVerdict
	Name() string
}

// SelectConfig picks the backend.
type SelectConfig struct {
	Backend string `yaml:"backend"`
	// Legacy switches, used only when Backend is empty.
	UseRemote bool `yaml:"useRemote"`
	UseNative bool `yaml:"useNative"`
}

// Deps holds the pre-built executors Select chooses from. Any may be nil
// when the backend is not configured.
type Deps struct {
	Container Executor
	Native    Executor
	Remote    Executor
}

// BackendName resolves the configured backend name, container by default.
func (c SelectConfig) BackendName() string {
	if name := strings.ToLower(strings.TrimSpace(c.Backend)); name != "" {
		return name
	}
	switch {
	case c.UseRemote:
		return BackendRemote
	case c.UseNative:
		return BackendNative
	default:
		return BackendContainer
	}
}

// Select returns the executor for the configured backend.
func Select(cfg SelectConfig, deps Deps) (Executor, error) {
	name := cfg.BackendName()
	var exec Executor
	switch name {
	case BackendContainer:
		exec = deps.Container
	case BackendNative:
		exec = deps.Native
	case BackendRemote:
		exec = deps.Remote
	default:
		return nil, appErr.ValidationError("backend", "must be one of container, native, remote")
	}
	if exec == nil {
		return nil, appErr.New(appErr.BackendUnavailable).WithMessagef("backend %s is not configured", name)
	}
	return exec, nil
}

// Describe returns a human readable label for a backend name.
func Describe(name string) string {
	switch name {
	case BackendContainer:
		return "Docker container sandbox"
	case BackendNative:
		return "Native process sandbox"
	case BackendRemote:
		return "Judge0 API"
	default:
		return "Unknown backend"
	}
}

func errorMessage(err error) string {
	if e := appErr.GetError(err); e != nil && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
