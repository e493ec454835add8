package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"codejudge/internal/judge/sandbox/result"
	"codejudge/internal/judge/sandbox/spec"
	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

// ProcessEngine runs commands as host processes in their own process group.
type ProcessEngine struct {
	cfg Config
}

// NewProcessEngine creates a host process engine.
func NewProcessEngine(cfg Config) *ProcessEngine {
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = defaultWaitDelay
	}
	return &ProcessEngine{cfg: cfg}
}

// Run starts the command, feeds stdin and waits for exit or the wall time limit.
func (e *ProcessEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.Outcome, error) {
	if err := validateRunSpec(runSpec); err != nil {
		return result.Outcome{}, err
	}

	timeout := durationFromMs(runSpec.Limits.WallTimeMs)
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	argv := e.commandLine(runSpec)
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = runSpec.WorkDir
	cmd.Env = e.environ(runSpec)
	cmd.Stdin = stdinReader(runSpec.Stdin)
	cmd.SysProcAttr = sysProcAttr()
	cmd.WaitDelay = e.cfg.WaitDelay

	stdout := newCappedBuffer(e.cfg.MaxOutputBytes)
	stderr := newCappedBuffer(e.cfg.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	var killed atomic.Bool
	cmd.Cancel = func() error {
		killed.Store(true)
		return killProcessTree(cmd.Process)
	}

	cgroupPath, cgroupCleanup := e.prepareCgroup(ctx, runSpec.Limits)
	defer cgroupCleanup()

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result.Outcome{}, appErr.Wrapf(err, appErr.JudgeSystemError, "start process %s failed", argv[0])
	}
	if cgroupPath != "" {
		if err := addProcessToCgroup(cgroupPath, cmd.Process.Pid); err != nil {
			logger.Warn(ctx, "add process to cgroup failed", zap.String("cgroup", cgroupPath), zap.Error(err))
		}
	}

	waitErr := cmd.Wait()
	elapsed := time.Since(start).Milliseconds()

	if killed.Load() {
		limitMs := runSpec.Limits.WallTimeMs
		if limitMs <= 0 || ctx.Err() != nil {
			limitMs = elapsed
		}
		outcome := result.Timeout(limitMs, stdout.String())
		outcome.Truncated = stdout.Truncated()
		return outcome, nil
	}
	if waitErr != nil && !isExitError(waitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		return result.Outcome{}, appErr.Wrapf(waitErr, appErr.JudgeSystemError, "wait process failed")
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	return result.Outcome{
		ExitSuccess: exitCode == 0,
		ExitCode:    exitCode,
		Stdout:      stdout.String(),
		Stderr:      stderr.String(),
		ElapsedMs:   elapsed,
		Truncated:   stdout.Truncated() || stderr.Truncated(),
		OOMKilled:   wasOomKilled(cgroupPath),
		MemoryKB:    memoryPeakKB(cgroupPath, cmd.ProcessState),
	}, nil
}

func (e *ProcessEngine) prepareCgroup(ctx context.Context, limits spec.ResourceLimit) (string, func()) {
	if e.cfg.CgroupRoot == "" {
		return "", func() {}
	}
	path, cleanup, err := createRunCgroup(e.cfg.CgroupRoot)
	if err != nil {
		logger.Warn(ctx, "create cgroup failed", zap.Error(err))
		return "", func() {}
	}
	if err := applyCgroupLimits(path, limits); err != nil {
		logger.Warn(ctx, "apply cgroup limits failed", zap.String("cgroup", path), zap.Error(err))
		cleanup()
		return "", func() {}
	}
	return path, cleanup
}

// commandLine prefixes the command with the hardening helper when configured.
func (e *ProcessEngine) commandLine(runSpec spec.RunSpec) []string {
	if e.cfg.HelperPath == "" {
		return runSpec.Cmd
	}
	limits := runSpec.Limits
	args := []string{e.cfg.HelperPath}
	cpuMs := limits.CPUTimeMs
	if cpuMs <= 0 {
		cpuMs = limits.WallTimeMs
	}
	if cpuMs > 0 {
		args = append(args, "-cpu-ms", strconv.FormatInt(cpuMs, 10))
	}
	if limits.MemoryMB > 0 {
		args = append(args, "-memory-mb", strconv.FormatInt(limits.MemoryMB, 10))
	}
	if limits.PIDs > 0 {
		args = append(args, "-pids", strconv.FormatInt(limits.PIDs, 10))
	}
	if limits.OutputMB > 0 {
		args = append(args, "-output-mb", strconv.FormatInt(limits.OutputMB, 10))
	}
	if e.cfg.SeccompProfile != "" {
		args = append(args, "-seccomp", e.cfg.SeccompProfile)
	}
	args = append(args, "--")
	return append(args, runSpec.Cmd...)
}

const defaultPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// environ builds the child environment. Without InheritEnv only PATH survives
// from the host and HOME/TMPDIR point at the work dir.
func (e *ProcessEngine) environ(runSpec spec.RunSpec) []string {
	if e.cfg.InheritEnv {
		return append(os.Environ(), runSpec.Env...)
	}
	path := os.Getenv("PATH")
	if path == "" {
		path = defaultPath
	}
	env := make([]string, 0, 3+len(runSpec.Env))
	env = append(env,
		"PATH="+path,
		"HOME="+runSpec.WorkDir,
		"TMPDIR="+runSpec.WorkDir,
	)
	return append(env, runSpec.Env...)
}

func stdinReader(input string) io.Reader {
	if input == "" {
		return nil
	}
	if !strings.HasSuffix(input, "\n") {
		input += "\n"
	}
	return strings.NewReader(input)
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
