//go:build !linux

package engine

import (
	"fmt"
	"os"

	"codejudge/internal/judge/sandbox/spec"
)

func createRunCgroup(root string) (string, func(), error) {
	return "", func() {}, fmt.Errorf("cgroups are only supported on linux")
}

func applyCgroupLimits(cgroupPath string, limits spec.ResourceLimit) error {
	return nil
}

func addProcessToCgroup(cgroupPath string, pid int) error {
	return nil
}

func wasOomKilled(cgroupPath string) bool {
	return false
}

func memoryPeakKB(cgroupPath string, state *os.ProcessState) int64 {
	return 0
}
