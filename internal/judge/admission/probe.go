package admission

import (
	"runtime"

	appErr "codejudge/pkg/errors"

	"github.com/prometheus/procfs"
)

// LoadSample is a point-in-time view of host pressure.
type LoadSample struct {
	// LoadPerCPU is the one minute load average divided by the CPU count.
	LoadPerCPU float64
	// MemAvailableRatio is MemAvailable / MemTotal in [0, 1].
	MemAvailableRatio float64
}

// LoadProbe samples host load.
type LoadProbe interface {
	Sample() (LoadSample, error)
}

// ProcProbe reads load and memory from a procfs mount.
type ProcProbe struct {
	fs   procfs.FS
	cpus int
}

// NewProcProbe opens procfs at mountPoint, "/proc" when empty.
func NewProcProbe(mountPoint string) (*ProcProbe, error) {
	if mountPoint == "" {
		mountPoint = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.JudgeSystemError, "open procfs %s failed", mountPoint)
	}
	return &ProcProbe{fs: fs, cpus: runtime.NumCPU()}, nil
}

// Sample reads /proc/loadavg and /proc/meminfo.
func (p *ProcProbe) Sample() (LoadSample, error) {
	load, err := p.fs.LoadAvg()
	if err != nil {
		return LoadSample{}, appErr.Wrapf(err, appErr.JudgeSystemError, "read loadavg failed")
	}
	mem, err := p.fs.Meminfo()
	if err != nil {
		return LoadSample{}, appErr.Wrapf(err, appErr.JudgeSystemError, "read meminfo failed")
	}

	cpus := p.cpus
	if cpus <= 0 {
		cpus = 1
	}
	sample := LoadSample{LoadPerCPU: load.Load1 / float64(cpus), MemAvailableRatio: 1}
	if mem.MemTotal != nil && mem.MemAvailable != nil && *mem.MemTotal > 0 {
		sample.MemAvailableRatio = float64(*mem.MemAvailable) / float64(*mem.MemTotal)
	}
	return sample, nil
}
