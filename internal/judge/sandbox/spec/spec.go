// Package spec defines the execution specification and resource limits.
package spec

// ResourceLimit describes hard limits enforced by the sandbox.
// Zero values mean the backend default applies.
type ResourceLimit struct {
	WallTimeMs int64
	CPUTimeMs  int64
	MemoryMB   int64
	OutputMB   int64
	PIDs       int64
}

// RunSpec is the unified execution specification for one process.
type RunSpec struct {
	// WorkDir is the host directory the process runs in.
	WorkDir string
	Cmd     []string
	Env     []string
	// Stdin is fed to the process; a trailing newline is added when missing.
	Stdin string
	// Image selects the container image for container backends.
	Image  string
	Limits ResourceLimit
}
