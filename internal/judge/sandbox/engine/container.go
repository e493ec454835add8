package engine

import (
	"context"
	"os/exec"
	"strconv"
	"time"

	"codejudge/internal/judge/sandbox/result"
	"codejudge/internal/judge/sandbox/spec"
	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// oomExitCode is what docker reports when the kernel OOM killer ends the container.
const oomExitCode = 137

const (
	defaultDockerBinary = "docker"
	defaultMountTarget  = "/work"
	defaultNetwork      = "none"
	defaultCPUs         = "0.5"
	defaultMemoryMB     = 256
	defaultPIDs         = 64
	defaultSecurityOpt  = "no-new-privileges"
	forceRemoveTimeout  = 10 * time.Second
	containerNamePrefix = "codejudge-"
	containerLabel      = "codejudge.managed=true"
)

// ContainerConfig holds the docker run flags applied to every container.
type ContainerConfig struct {
	Binary       string   `yaml:"binary"`
	Network      string   `yaml:"network"`
	CPUs         string   `yaml:"cpus"`
	MemoryMB     int64    `yaml:"memoryMb"`
	PIDs         int64    `yaml:"pids"`
	SecurityOpts []string `yaml:"securityOpts"`
	MountTarget  string   `yaml:"mountTarget"`
	ExtraArgs    []string `yaml:"extraArgs"`
}

// ContainerEngine runs each command in a throwaway container through the docker CLI.
// The wrapped engine supervises the docker client process.
type ContainerEngine struct {
	inner  Engine
	cfg    ContainerConfig
	remove func(ctx context.Context, name string) error
}

// NewContainerEngine wraps inner so every RunSpec executes inside a container.
func NewContainerEngine(inner Engine, cfg ContainerConfig) *ContainerEngine {
	if cfg.Binary == "" {
		cfg.Binary = defaultDockerBinary
	}
	if cfg.Network == "" {
		cfg.Network = defaultNetwork
	}
	if cfg.CPUs == "" {
		cfg.CPUs = defaultCPUs
	}
	if cfg.MemoryMB <= 0 {
		cfg.MemoryMB = defaultMemoryMB
	}
	if cfg.PIDs <= 0 {
		cfg.PIDs = defaultPIDs
	}
	if len(cfg.SecurityOpts) == 0 {
		cfg.SecurityOpts = []string{defaultSecurityOpt}
	}
	if cfg.MountTarget == "" {
		cfg.MountTarget = defaultMountTarget
	}
	e := &ContainerEngine{inner: inner, cfg: cfg}
	e.remove = e.forceRemove
	return e
}

// Run executes the command in a fresh container with the workdir bind mounted.
func (e *ContainerEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.Outcome, error) {
	if err := validateRunSpec(runSpec); err != nil {
		return result.Outcome{}, err
	}
	if runSpec.Image == "" {
		return result.Outcome{}, appErr.ValidationError("image", "required")
	}

	name := containerNamePrefix + uuid.NewString()
	hostSpec := spec.RunSpec{
		WorkDir: runSpec.WorkDir,
		Cmd:     e.dockerArgs(name, runSpec),
		Stdin:   runSpec.Stdin,
		Limits:  spec.ResourceLimit{WallTimeMs: runSpec.Limits.WallTimeMs},
	}

	outcome, err := e.inner.Run(ctx, hostSpec)
	if err != nil {
		return result.Outcome{}, err
	}
	if outcome.TimedOut {
		// Killing the docker client leaves the container running.
		if err := e.remove(context.WithoutCancel(ctx), name); err != nil {
			logger.Warn(ctx, "force remove container failed", zap.String("container", name), zap.Error(err))
		}
	}
	if !outcome.TimedOut && outcome.ExitCode == oomExitCode {
		outcome.OOMKilled = true
	}
	// Peak RSS of the docker client says nothing about the container.
	outcome.MemoryKB = 0
	return outcome, nil
}

func (e *ContainerEngine) dockerArgs(name string, runSpec spec.RunSpec) []string {
	memoryMB := e.cfg.MemoryMB
	if runSpec.Limits.MemoryMB > 0 {
		memoryMB = runSpec.Limits.MemoryMB
	}
	pids := e.cfg.PIDs
	if runSpec.Limits.PIDs > 0 {
		pids = runSpec.Limits.PIDs
	}

	args := []string{
		e.cfg.Binary, "run", "--rm", "-i",
		"--name", name,
		"--label", containerLabel,
		"--network", e.cfg.Network,
		"--cpus", e.cfg.CPUs,
		"--memory", strconv.FormatInt(memoryMB, 10) + "m",
		"--memory-swap", strconv.FormatInt(memoryMB, 10) + "m",
		"--pids-limit", strconv.FormatInt(pids, 10),
	}
	for _, opt := range e.cfg.SecurityOpts {
		args = append(args, "--security-opt", opt)
	}
	for _, env := range runSpec.Env {
		args = append(args, "-e", env)
	}
	args = append(args, "-v", runSpec.WorkDir+":"+e.cfg.MountTarget, "-w", e.cfg.MountTarget)
	args = append(args, e.cfg.ExtraArgs...)
	args = append(args, runSpec.Image)
	return append(args, runSpec.Cmd...)
}

func (e *ContainerEngine) forceRemove(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, forceRemoveTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, e.cfg.Binary, "rm", "-f", name)
	if out, err := cmd.CombinedOutput(); err != nil {
		return appErr.Wrapf(err, appErr.JudgeSystemError, "docker rm -f %s: %s", name, string(out))
	}
	return nil
}
