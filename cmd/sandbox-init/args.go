package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	rlimitCPU = iota
	rlimitAS
	rlimitNPROC
	rlimitFSIZE
)

type options struct {
	CPUTimeMs      int64
	MemoryMB       int64
	PIDs           int64
	OutputMB       int64
	SeccompProfile string
	Cmd            []string
}

type rlimit struct {
	name     string
	resource int
	value    uint64
}

func parseArgs(argv []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("sandbox-init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Int64Var(&opts.CPUTimeMs, "cpu-ms", 0, "CPU time limit in milliseconds")
	fs.Int64Var(&opts.MemoryMB, "memory-mb", 0, "address space limit in MB")
	fs.Int64Var(&opts.PIDs, "pids", 0, "process count limit")
	fs.Int64Var(&opts.OutputMB, "output-mb", 0, "file size limit in MB")
	fs.StringVar(&opts.SeccompProfile, "seccomp", "", "seccomp profile path")
	if err := fs.Parse(argv); err != nil {
		return options{}, fmt.Errorf("parse flags: %w", err)
	}
	opts.Cmd = fs.Args()
	if len(opts.Cmd) == 0 {
		return options{}, errors.New("command is required after --")
	}
	for name, v := range map[string]int64{"cpu-ms": opts.CPUTimeMs, "memory-mb": opts.MemoryMB, "pids": opts.PIDs, "output-mb": opts.OutputMB} {
		if v < 0 {
			return options{}, fmt.Errorf("-%s must be non-negative", name)
		}
	}
	return opts, nil
}

// rlimits lists the limits to set. Resource ids are the rlimitX
// placeholders on non-Linux builds and are mapped in rlimitResource.
func (o options) rlimits() []rlimit {
	var out []rlimit
	if o.CPUTimeMs > 0 {
		// RLIMIT_CPU has second granularity; round up so short limits still apply.
		out = append(out, rlimit{name: "cpu", resource: rlimitResource(rlimitCPU), value: uint64((o.CPUTimeMs + 999) / 1000)})
	}
	if o.MemoryMB > 0 {
		out = append(out, rlimit{name: "as", resource: rlimitResource(rlimitAS), value: uint64(o.MemoryMB) << 20})
	}
	if o.PIDs > 0 {
		out = append(out, rlimit{name: "nproc", resource: rlimitResource(rlimitNPROC), value: uint64(o.PIDs)})
	}
	if o.OutputMB > 0 {
		out = append(out, rlimit{name: "fsize", resource: rlimitResource(rlimitFSIZE), value: uint64(o.OutputMB) << 20})
	}
	return out
}

type seccompProfile struct {
	DefaultAction string           `json:"defaultAction"`
	Syscalls      []seccompSyscall `json:"syscalls"`
}

type seccompSyscall struct {
	Names  []string `json:"names"`
	Action string   `json:"action"`
}

func loadSeccompProfile(path string) (seccompProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seccompProfile{}, fmt.Errorf("read seccomp profile: %w", err)
	}
	var profile seccompProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return seccompProfile{}, fmt.Errorf("parse seccomp profile: %w", err)
	}
	if profile.DefaultAction == "" {
		return seccompProfile{}, errors.New("seccomp profile has no defaultAction")
	}
	return profile, nil
}

func normalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
