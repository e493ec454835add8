package model

// ProblemSpec is supplied by the problem service and read-only inside the judge.
type ProblemSpec struct {
	ID    int64  `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	// CodeTemplates maps a language name to a wrapper template for function-only code.
	CodeTemplates map[string]string `json:"codeTemplates,omitempty" yaml:"codeTemplates"`
	// DefaultEntry is called when no function name can be inferred from the submission.
	DefaultEntry  string     `json:"defaultEntry,omitempty" yaml:"defaultEntry"`
	TestCases     []TestCase `json:"testCases" yaml:"testCases"`
	TimeLimitMs   int64      `json:"timeLimitMs,omitempty" yaml:"timeLimitMs"`
	MemoryLimitMB int64      `json:"memoryLimitMb,omitempty" yaml:"memoryLimitMb"`
}

// Request builds an execution request for this problem.
// Cases without their own limit inherit the problem time limit.
func (p ProblemSpec) Request(sourceCode, language string) ExecutionRequest {
	cases := make([]TestCase, len(p.TestCases))
	for i, tc := range p.TestCases {
		if tc.TimeLimitMs <= 0 {
			tc.TimeLimitMs = p.TimeLimitMs
		}
		cases[i] = tc
	}
	return ExecutionRequest{
		SourceCode: sourceCode,
		Language:   language,
		ProblemID:  p.ID,
		TestCases:  cases,
	}
}
