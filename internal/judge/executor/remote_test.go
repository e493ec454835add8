package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"codejudge/internal/judge/language"
	"codejudge/internal/judge/model"
	"codejudge/internal/judge/prepare"
)

type judge0Fake struct {
	mu        sync.Mutex
	submitted []judge0Submission
	// responses are returned for submissions in order.
	responses []string
	// polls maps a token to the bodies returned by successive GETs.
	polls   map[string][]string
	headers http.Header
}

func (f *judge0Fake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headers = r.Header.Clone()
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/submissions":
		if r.URL.Query().Get("wait") != "true" || r.URL.Query().Get("base64_encoded") != "false" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var sub judge0Submission
		_ = json.NewDecoder(r.Body).Decode(&sub)
		i := len(f.submitted)
		f.submitted = append(f.submitted, sub)
		w.WriteHeader(http.StatusCreated)
		if i < len(f.responses) {
			_, _ = w.Write([]byte(f.responses[i]))
		}
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/submissions/"):
		token := strings.TrimPrefix(r.URL.Path, "/submissions/")
		bodies := f.polls[token]
		if len(bodies) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body := bodies[0]
		if len(bodies) > 1 {
			f.polls[token] = bodies[1:]
		}
		_, _ = w.Write([]byte(body))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newRemote(t *testing.T, fake *judge0Fake, apiKey string) *RemoteExecutor {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	languages := language.NewRegistry()
	preparer := prepare.NewPreparer(languages, prepare.NewTemplateRegistry(), prepare.Config{})
	return NewRemoteExecutor(RemoteConfig{URL: srv.URL, APIKey: apiKey, PollAttempts: 3, PollIntervalMs: 1}, languages, preparer, nil)
}

func TestRemoteExecuteAccepted(t *testing.T) {
	fake := &judge0Fake{responses: []string{
		`{"token":"a","stdout":"5\n","time":"0.012","memory":2048,"status":{"id":3,"description":"Accepted"}}`,
		`{"token":"b","stdout":"7","time":"0.020","memory":1024,"status":{"id":3,"description":"Accepted"}}`,
	}}
	exec := newRemote(t, fake, "secret")
	v := exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: "a, b = map(int, input().split())\nprint(a + b)\n",
		Language:   "python3",
		TestCases: []model.TestCase{
			{ID: "1", Input: "2 3", ExpectedOutput: "5"},
			{ID: "2", Input: "3 4", ExpectedOutput: "7", TimeLimitMs: 2000},
		},
	})
	if v.Status != model.StatusAccepted || v.PassedTestCases != 2 {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if v.TestResults[0].RuntimeMs != 12 || v.TestResults[0].MemoryMB != 2 {
		t.Fatalf("unexpected conversions %+v", v.TestResults[0])
	}
	if v.AverageRuntimeMs != 16 || v.AverageMemoryMB != 1.5 {
		t.Fatalf("unexpected averages %+v", v)
	}
	if fake.submitted[0].LanguageID != 71 || fake.submitted[0].Stdin != "2 3" {
		t.Fatalf("unexpected submission %+v", fake.submitted[0])
	}
	if fake.submitted[1].CPUTimeLimit != 2 {
		t.Fatalf("expected cpu limit 2s, got %v", fake.submitted[1].CPUTimeLimit)
	}
	if fake.headers.Get("X-RapidAPI-Key") != "secret" || fake.headers.Get("X-RapidAPI-Host") != defaultRemoteHost {
		t.Fatalf("missing rapidapi headers: %v", fake.headers)
	}
	if exec.Name() != BackendRemote {
		t.Fatalf("unexpected name %s", exec.Name())
	}
}

func TestRemoteExecutePolls(t *testing.T) {
	fake := &judge0Fake{
		responses: []string{`{"token":"tok"}`},
		polls: map[string][]string{
			"tok": {
				`{"status":{"id":1,"description":"In Queue"}}`,
				`{"status":{"id":2,"description":"Processing"}}`,
				`{"stdout":"6","time":"0.5","status":{"id":3,"description":"Accepted"}}`,
			},
		},
	}
	exec := newRemote(t, fake, "")
	v := exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: "print(int(input()) * 2)",
		Language:   "python",
		TestCases:  []model.TestCase{{ID: "1", Input: "3", ExpectedOutput: "5"}},
	})
	if v.Status != model.StatusWrongAnswer || v.TestResults[0].ActualOutput != "6" || v.TestResults[0].RuntimeMs != 500 {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if fake.headers.Get("X-RapidAPI-Key") != "" {
		t.Fatalf("rapidapi headers must be omitted without a key")
	}
}

func TestRemoteExecutePollExhausted(t *testing.T) {
	fake := &judge0Fake{
		responses: []string{`{"token":"slow"}`},
		polls:     map[string][]string{"slow": {`{"status":{"id":2,"description":"Processing"}}`}},
	}
	exec := newRemote(t, fake, "")
	v := exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: "print(input())",
		Language:   "python",
		TestCases:  []model.TestCase{{ID: "1"}, {ID: "2"}},
	})
	if v.Status != model.StatusRuntimeError || len(v.TestResults) != 1 {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if !strings.Contains(v.TestResults[0].ErrorMessage, "timeout waiting for judge0 result") {
		t.Fatalf("unexpected message %q", v.TestResults[0].ErrorMessage)
	}
}

func TestRemoteStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		status  model.ExecutionStatus
		message string
	}{
		{name: "wrong answer", body: `{"status":{"id":4,"description":"Wrong Answer"}}`, status: model.StatusWrongAnswer},
		{name: "time limit", body: `{"status":{"id":5,"description":"Time Limit Exceeded"}}`, status: model.StatusTimeLimitExceeded, message: "Time limit exceeded"},
		{name: "runtime", body: `{"stderr":"ZeroDivisionError","status":{"id":11,"description":"Runtime Error (NZEC)"}}`, status: model.StatusRuntimeError, message: "ZeroDivisionError"},
		{name: "runtime description", body: `{"status":{"id":13,"description":"Internal Error"}}`, status: model.StatusRuntimeError, message: "Internal Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var res judge0Result
			if err := json.Unmarshal([]byte(tc.body), &res); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			out := mapJudge0Result(model.TestCase{ID: "1", ExpectedOutput: "x"}, res)
			if out.Status != tc.status || out.ErrorMessage != tc.message || out.Passed {
				t.Fatalf("unexpected result %+v", out)
			}
		})
	}
}

func TestRemoteCompileError(t *testing.T) {
	fake := &judge0Fake{responses: []string{
		`{"compile_output":"main.cpp:1: error","status":{"id":6,"description":"Compilation Error"}}`,
	}}
	exec := newRemote(t, fake, "")
	v := exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: "int main() { return 0 }",
		Language:   "cpp",
		TestCases:  []model.TestCase{{ID: "1"}, {ID: "2"}},
	})
	if v.Status != model.StatusCompileError || len(v.TestResults) != 0 || v.ErrorMessage != "main.cpp:1: error" {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if len(fake.submitted) != 1 {
		t.Fatalf("expected one submission, got %d", len(fake.submitted))
	}
}

func TestRemoteUnsupportedLanguage(t *testing.T) {
	fake := &judge0Fake{}
	exec := newRemote(t, fake, "")
	if err := exec.languages.Register(language.Spec{ID: "brainfuck", SourceFile: "main.bf", RunCmd: "bf {src}"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	v := exec.Execute(context.Background(), model.ExecutionRequest{
		SourceCode: "+.",
		Language:   "brainfuck",
		TestCases:  []model.TestCase{{ID: "1"}},
	})
	if v.Status != model.StatusCompileError || len(fake.submitted) != 0 {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestFlexibleFloat(t *testing.T) {
	var v struct {
		A flexibleFloat `json:"a"`
		B flexibleFloat `json:"b"`
		C flexibleFloat `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"0.25","b":3,"c":null}`), &v); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if v.A != 0.25 || v.B != 3 || v.C != 0 {
		t.Fatalf("unexpected values %+v", v)
	}
}
