// Package model defines the data exchanged between the judge core and its callers.
package model

// ExecutionStatus is the shared classification for test cases and whole executions.
type ExecutionStatus string

const (
	StatusAccepted            ExecutionStatus = "ACCEPTED"
	StatusWrongAnswer         ExecutionStatus = "WRONG_ANSWER"
	StatusTimeLimitExceeded   ExecutionStatus = "TIME_LIMIT_EXCEEDED"
	StatusMemoryLimitExceeded ExecutionStatus = "MEMORY_LIMIT_EXCEEDED"
	StatusRuntimeError        ExecutionStatus = "RUNTIME_ERROR"
	StatusCompileError        ExecutionStatus = "COMPILE_ERROR"
)

// TestCase is one stdin/stdout pair authored with a problem.
type TestCase struct {
	ID             string `json:"id" yaml:"id"`
	Input          string `json:"input" yaml:"input"`
	ExpectedOutput string `json:"expectedOutput" yaml:"expectedOutput"`
	IsHidden       bool   `json:"isHidden" yaml:"isHidden"`
	// TimeLimitMs overrides the configured default when positive.
	TimeLimitMs int64 `json:"timeLimitMs,omitempty" yaml:"timeLimitMs"`
}

// ExecutionRequest is the input contract of the judge core.
type ExecutionRequest struct {
	SourceCode string `json:"sourceCode"`
	Language   string `json:"language"`
	// ProblemID selects the wrapping template for function-only submissions; zero means none.
	ProblemID int64      `json:"problemId,omitempty"`
	TestCases []TestCase `json:"testCases"`
}

// TestCaseResult is the outcome of one evaluated test case.
type TestCaseResult struct {
	TestCaseID     string          `json:"testCaseId"`
	Status         ExecutionStatus `json:"status"`
	Passed         bool            `json:"passed"`
	Input          string          `json:"input"`
	ExpectedOutput string          `json:"expectedOutput"`
	ActualOutput   string          `json:"actualOutput"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	RuntimeMs      int64           `json:"runtimeMs"`
	MemoryMB       float64         `json:"memoryMb"`
}

// ExecutionVerdict is the terminal artifact returned to the submission layer.
type ExecutionVerdict struct {
	Status           ExecutionStatus  `json:"status"`
	TestResults      []TestCaseResult `json:"testResults"`
	TotalTestCases   int              `json:"totalTestCases"`
	PassedTestCases  int              `json:"passedTestCases"`
	AverageRuntimeMs int64            `json:"averageRuntimeMs"`
	AverageMemoryMB  float64          `json:"averageMemoryMb"`
	ErrorMessage     string           `json:"errorMessage,omitempty"`
}

// Accepted reports whether every requested case passed.
func (v ExecutionVerdict) Accepted() bool {
	return v.Status == StatusAccepted
}
