package controller

import "codejudge/internal/judge/model"

// ExecuteRequest is the body of POST /executions.
// TestCases may be omitted when ProblemID names a configured problem.
type ExecuteRequest struct {
	SourceCode string            `json:"sourceCode"`
	Language   string            `json:"language"`
	ProblemID  int64             `json:"problemId" binding:"min=0"`
	TestCases  []TestCasePayload `json:"testCases" binding:"omitempty,dive"`
}

// TestCasePayload is one test case in an execute request.
type TestCasePayload struct {
	ID             string `json:"id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsHidden       bool   `json:"isHidden"`
	// TimeLimitMs is capped at ten minutes; the evaluator clamps further.
	TimeLimitMs    int64  `json:"timeLimitMs" binding:"min=0,max=600000"`
}

func (r ExecuteRequest) toModel() model.ExecutionRequest {
	cases := make([]model.TestCase, 0, len(r.TestCases))
	for _, tc := range r.TestCases {
		cases = append(cases, model.TestCase{
			ID:             tc.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			IsHidden:       tc.IsHidden,
			TimeLimitMs:    tc.TimeLimitMs,
		})
	}
	return model.ExecutionRequest{
		SourceCode: r.SourceCode,
		Language:   r.Language,
		ProblemID:  r.ProblemID,
		TestCases:  cases,
	}
}
