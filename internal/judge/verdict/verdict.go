// Package verdict folds test case results into one execution verdict.
package verdict

import (
	"fmt"

	"codejudge/internal/judge/model"
)

// Aggregate builds the verdict for requested test cases from the evaluated results.
// Results may be shorter than requested when evaluation stopped early.
func Aggregate(results []model.TestCaseResult, requested int) model.ExecutionVerdict {
	v := model.ExecutionVerdict{
		TestResults:    results,
		TotalTestCases: requested,
	}
	if v.TestResults == nil {
		v.TestResults = []model.TestCaseResult{}
	}

	var totalRuntime int64
	var totalMemory float64
	failed := -1
	for i, r := range results {
		if r.Passed {
			v.PassedTestCases++
		} else if failed < 0 {
			failed = i
		}
		totalRuntime += r.RuntimeMs
		totalMemory += r.MemoryMB
	}
	if n := len(results); n > 0 {
		v.AverageRuntimeMs = totalRuntime / int64(n)
		v.AverageMemoryMB = totalMemory / float64(n)
	}

	switch {
	case v.PassedTestCases == requested:
		v.Status = model.StatusAccepted
	case failed >= 0:
		v.Status = results[failed].Status
		v.ErrorMessage = fmt.Sprintf("test case %d/%d failed", failed+1, requested)
	default:
		v.Status = model.StatusWrongAnswer
		v.ErrorMessage = fmt.Sprintf("only %d/%d test cases evaluated", len(results), requested)
	}
	return v
}

// CompileError is the verdict for a program that never compiled.
func CompileError(message string, requested int) model.ExecutionVerdict {
	return model.ExecutionVerdict{
		Status:         model.StatusCompileError,
		TestResults:    []model.TestCaseResult{},
		TotalTestCases: requested,
		ErrorMessage:   message,
	}
}

// Rejected is the verdict for a request that failed outside any test case.
func Rejected(message string, requested int) model.ExecutionVerdict {
	return model.ExecutionVerdict{
		Status:         model.StatusRuntimeError,
		TestResults:    []model.TestCaseResult{},
		TotalTestCases: requested,
		ErrorMessage:   message,
	}
}
