//go:build linux

package main

import "golang.org/x/sys/unix"

func rlimitResource(id int) int {
	switch id {
	case rlimitCPU:
		return unix.RLIMIT_CPU
	case rlimitAS:
		return unix.RLIMIT_AS
	case rlimitNPROC:
		return unix.RLIMIT_NPROC
	default:
		return unix.RLIMIT_FSIZE
	}
}
