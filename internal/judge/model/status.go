package model

// RunState represents the lifecycle state of one execution.
type RunState string

const (
	RunPending  RunState = "Pending"
	RunRunning  RunState = "Running"
	RunFinished RunState = "Finished"
	RunFailed   RunState = "Failed"
)

// Timestamps captures execution lifecycle timestamps in unix seconds.
type Timestamps struct {
	ReceivedAt int64 `json:"receivedAt"`
	FinishedAt int64 `json:"finishedAt,omitempty"`
}

// RunStatus is the pollable record of an execution.
type RunStatus struct {
	ExecutionID  string            `json:"executionId"`
	State        RunState          `json:"state"`
	Language     string            `json:"language"`
	Backend      string            `json:"backend"`
	TotalTests   int               `json:"totalTests"`
	Verdict      *ExecutionVerdict `json:"verdict,omitempty"`
	ErrorCode    int               `json:"errorCode,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	Timestamps   Timestamps        `json:"timestamps"`
}

// StatusEventType identifies a status event kind.
type StatusEventType string

const (
	StatusEventFinal StatusEventType = "final"
)

// StatusEvent is published once an execution reaches a terminal state.
type StatusEvent struct {
	Type      StatusEventType `json:"type"`
	Status    RunStatus       `json:"status"`
	CreatedAt int64           `json:"createdAt"`
}
