//go:build linux

package engine

import (
	"errors"
	"os"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}

// killProcessTree kills the whole process group so forked children die too.
func killProcessTree(proc *os.Process) error {
	if proc == nil || proc.Pid <= 0 {
		return os.ErrProcessDone
	}
	err := syscall.Kill(-proc.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
