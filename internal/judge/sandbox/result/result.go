// Package result defines raw sandbox execution outcomes.
package result

// TimeoutMarker is written to Stderr when the wall clock limit fires.
const TimeoutMarker = "TIMEOUT"

// TruncatedMarker is appended to a stream cut at the output ceiling.
const TruncatedMarker = "\n...[output truncated]"

// Outcome captures one process execution.
type Outcome struct {
	ExitSuccess bool
	ExitCode    int
	Stdout      string
	Stderr      string
	ElapsedMs   int64
	TimedOut    bool
	Truncated   bool
	// OOMKilled is set when the backend attributes the exit to the memory limit.
	OOMKilled bool
	// MemoryKB is the peak memory reported by the backend, zero when unknown.
	MemoryKB int64
}

// Timeout builds the outcome recorded when the wall clock limit fires.
func Timeout(timeoutMs int64, stdout string) Outcome {
	return Outcome{
		ExitSuccess: false,
		ExitCode:    -1,
		Stdout:      stdout,
		Stderr:      TimeoutMarker,
		ElapsedMs:   timeoutMs,
		TimedOut:    true,
	}
}

// Message returns the most useful diagnostic text, stderr first.
func (o Outcome) Message() string {
	if o.Stderr != "" {
		return o.Stderr
	}
	return o.Stdout
}
