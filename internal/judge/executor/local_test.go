package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codejudge/internal/judge/evaluator"
	"codejudge/internal/judge/language"
	"codejudge/internal/judge/model"
	"codejudge/internal/judge/prepare"
	"codejudge/internal/judge/sandbox/result"
	"codejudge/internal/judge/sandbox/runner"
	"codejudge/internal/judge/sandbox/spec"
	"codejudge/internal/judge/workspace"
)

// scriptedEngine replays outcomes in call order and snapshots the workspace.
type scriptedEngine struct {
	outcomes []result.Outcome
	calls    []spec.RunSpec
	files    map[string]string
	panicAt  int
}

func (s *scriptedEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.Outcome, error) {
	s.calls = append(s.calls, runSpec)
	if s.panicAt > 0 && len(s.calls) == s.panicAt {
		panic("engine exploded")
	}
	if s.files == nil {
		s.files = make(map[string]string)
	}
	entries, _ := os.ReadDir(runSpec.WorkDir)
	for _, e := range entries {
		data, _ := os.ReadFile(filepath.Join(runSpec.WorkDir, e.Name()))
		s.files[e.Name()] = string(data)
	}
	i := len(s.calls) - 1
	if i < len(s.outcomes) {
		return s.outcomes[i], nil
	}
	return result.Outcome{ExitSuccess: true}, nil
}

type fixture struct {
	exec   *LocalExecutor
	engine *scriptedEngine
	root   string
}

func newFixture(t *testing.T, outcomes ...result.Outcome) fixture {
	t.Helper()
	root := t.TempDir()
	ws, err := workspace.NewManager(root)
	if err != nil {
		t.Fatalf("new workspace failed: %v", err)
	}
	eng := &scriptedEngine{outcomes: outcomes}
	languages := language.NewRegistry()
	run := runner.NewRunner(eng, runner.Config{})
	exec := NewLocalExecutor(BackendNative, LocalDeps{
		Languages: languages,
		Preparer:  prepare.NewPreparer(languages, prepare.NewTemplateRegistry(), prepare.Config{BlockPatterns: true}),
		Compiler:  run,
		Evaluator: evaluator.NewEvaluator(run, evaluator.Config{}, nil),
		Workspace: ws,
	})
	return fixture{exec: exec, engine: eng, root: root}
}

func (f fixture) assertClean(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.root)
	if err != nil {
		t.Fatalf("read root failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace not removed: %d entries left", len(entries))
	}
}

func ok(stdout string) result.Outcome {
	return result.Outcome{ExitSuccess: true, Stdout: stdout, ElapsedMs: 12}
}

func TestLocalExecuteAccepted(t *testing.T) {
	f := newFixture(t, ok("5\n"), ok("7\n"))
	code := "a, b = map(int, input().split())\nprint(a + b)\n"
	v := f.exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: code,
		Language:   "py",
		TestCases: []model.TestCase{
			{ID: "1", Input: "2 3", ExpectedOutput: "5"},
			{ID: "2", Input: "3 4", ExpectedOutput: "7"},
		},
	})
	if v.Status != model.StatusAccepted || v.PassedTestCases != 2 || v.TotalTestCases != 2 {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if v.AverageRuntimeMs != 12 {
		t.Fatalf("unexpected average runtime %d", v.AverageRuntimeMs)
	}
	if f.engine.files["main.py"] != code {
		t.Fatalf("complete program must be written unchanged, got %q", f.engine.files["main.py"])
	}
	if f.engine.calls[0].Stdin != "2 3" {
		t.Fatalf("unexpected stdin %q", f.engine.calls[0].Stdin)
	}
	f.assertClean(t)
}

func TestLocalExecuteWrapsFunction(t *testing.T) {
	f := newFixture(t, ok("true\n"), ok("false\n"))
	code := "class Solution:\n    def is_even(self, num):\n        return num % 2 == 0\n"
	v := f.exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: code,
		Language:   "python",
		ProblemID:  prepare.ProblemEvenOdd,
		TestCases: []model.TestCase{
			{ID: "1", Input: "4", ExpectedOutput: "true"},
			{ID: "2", Input: "7", ExpectedOutput: "false"},
		},
	})
	if v.Status != model.StatusAccepted {
		t.Fatalf("unexpected verdict %+v", v)
	}
	written := f.engine.files["main.py"]
	if !strings.Contains(written, "Solution().is_even(num)") {
		t.Fatalf("expected wrapper call in written source:\n%s", written)
	}
	f.assertClean(t)
}

func TestLocalExecuteJavaClassName(t *testing.T) {
	f := newFixture(t, ok(""), ok("3\n"))
	code := "import java.util.*;\n\npublic class Solution {\n    public static void main(String[] args) {\n        Scanner in = new Scanner(System.in);\n        System.out.println(in.nextInt() + in.nextInt());\n    }\n}\n"
	v := f.exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: code,
		Language:   "java",
		TestCases:  []model.TestCase{{ID: "1", Input: "1 2", ExpectedOutput: "3"}},
	})
	if v.Status != model.StatusAccepted {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if f.engine.files["Solution.java"] != code {
		t.Fatalf("source must be written as Solution.java, got files %v", f.engine.files)
	}
	if _, ok := f.engine.files["Main.java"]; ok {
		t.Fatalf("Main.java must not be written")
	}
	if got := strings.Join(f.engine.calls[0].Cmd, " "); got != "javac Solution.java" {
		t.Fatalf("unexpected compile command %q", got)
	}
	if got := strings.Join(f.engine.calls[1].Cmd, " "); got != "java -Xss64m Solution" {
		t.Fatalf("unexpected run command %q", got)
	}
	f.assertClean(t)
}

func TestLocalExecuteCompileError(t *testing.T) {
	f := newFixture(t, result.Outcome{ExitCode: 1, Stderr: "main.cpp:1:1: error: expected ';'\n"})
	v := f.exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: "int main() { return 0 }",
		Language:   "cpp",
		TestCases:  []model.TestCase{{ID: "1", ExpectedOutput: "0"}},
	})
	if v.Status != model.StatusCompileError || len(v.TestResults) != 0 {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if !strings.Contains(v.ErrorMessage, "expected ';'") {
		t.Fatalf("compiler output must be the message, got %q", v.ErrorMessage)
	}
	if len(f.engine.calls) != 1 {
		t.Fatalf("no test case may run after a failed compile, got %d calls", len(f.engine.calls))
	}
	f.assertClean(t)
}

func TestLocalExecuteRejectsBeforeSpawn(t *testing.T) {
	cases := []struct {
		name    string
		req     model.ExecutionRequest
		message string
	}{
		{name: "unsupported language", req: model.ExecutionRequest{SourceCode: "print 1", Language: "cobol"}, message: "cobol"},
		{name: "empty source", req: model.ExecutionRequest{SourceCode: "   ", Language: "python"}},
		{name: "blocked pattern", req: model.ExecutionRequest{SourceCode: "import subprocess\nprint(1)", Language: "python"}},
		{name: "missing template", req: model.ExecutionRequest{SourceCode: "def f(x):\n    return x\n", Language: "python", ProblemID: 999}, message: "unsupported language or problem"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.req.TestCases = []model.TestCase{{ID: "1"}}
			v := f.exec.Execute(context.Background(), tc.req)
			if v.Status != model.StatusCompileError || len(v.TestResults) != 0 || v.TotalTestCases != 1 {
				t.Fatalf("unexpected verdict %+v", v)
			}
			if tc.message != "" && !strings.Contains(v.ErrorMessage, tc.message) {
				t.Fatalf("expected %q in %q", tc.message, v.ErrorMessage)
			}
			if len(f.engine.calls) != 0 {
				t.Fatalf("sandbox must not be invoked")
			}
		})
	}
}

func TestLocalExecuteHiddenFailureStops(t *testing.T) {
	f := newFixture(t, ok("1"), ok("wrong"), ok("3"))
	v := f.exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: "print(input())",
		Language:   "python",
		TestCases: []model.TestCase{
			{ID: "1", Input: "1", ExpectedOutput: "1"},
			{ID: "2", Input: "2", ExpectedOutput: "2", IsHidden: true},
			{ID: "3", Input: "3", ExpectedOutput: "3"},
		},
	})
	if v.Status != model.StatusWrongAnswer || len(v.TestResults) != 2 || v.TotalTestCases != 3 {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if v.ErrorMessage != "test case 2/3 failed" {
		t.Fatalf("unexpected message %q", v.ErrorMessage)
	}
}

func TestLocalExecuteTimeout(t *testing.T) {
	f := newFixture(t, result.Timeout(1000, ""))
	v := f.exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: "while True:\n    pass\nprint(input())",
		Language:   "python",
		TestCases:  []model.TestCase{{ID: "1", Input: "x", ExpectedOutput: "x", TimeLimitMs: 1000}},
	})
	if v.Status != model.StatusTimeLimitExceeded || v.TestResults[0].RuntimeMs != 1000 {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestLocalExecuteRecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.engine.panicAt = 1
	v := f.exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: "print(input())",
		Language:   "python",
		TestCases:  []model.TestCase{{ID: "1"}},
	})
	if v.Status != model.StatusRuntimeError || !strings.Contains(v.ErrorMessage, "engine exploded") {
		t.Fatalf("unexpected verdict %+v", v)
	}
	f.assertClean(t)
}
