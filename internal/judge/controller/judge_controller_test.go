package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	commonmw "codejudge/internal/common/http/middleware"
	"codejudge/internal/judge/model"
	"codejudge/internal/judge/service"
	appErr "codejudge/pkg/errors"

	"github.com/gin-gonic/gin"
)

type fakeService struct {
	lastReq  model.ExecutionRequest
	execErr  error
	statuses map[string]model.RunStatus
}

func (f *fakeService) Execute(ctx context.Context, req model.ExecutionRequest) (model.RunStatus, error) {
	f.lastReq = req
	if f.execErr != nil {
		return model.RunStatus{State: model.RunFailed}, f.execErr
	}
	return model.RunStatus{
		ExecutionID: "exec-1",
		State:       model.RunFinished,
		Verdict:     &model.ExecutionVerdict{Status: model.StatusAccepted, TotalTestCases: len(req.TestCases), PassedTestCases: len(req.TestCases)},
	}, nil
}

func (f *fakeService) Get(ctx context.Context, executionID string) (model.RunStatus, error) {
	st, ok := f.statuses[executionID]
	if !ok {
		return model.RunStatus{}, appErr.New(appErr.ExecutionNotFound).WithMessage("execution status not found")
	}
	return st, nil
}

func (f *fakeService) BackendInfo(ctx context.Context) service.BackendInfo {
	return service.BackendInfo{Name: "container", Method: "Docker container sandbox", SlotsTotal: 4}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	TraceID string          `json:"trace_id"`
}

func newRouter(svc JudgeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(commonmw.TraceContextMiddleware())
	NewJudgeController(svc).Register(router.Group("/api/v1/judge"))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response failed: %v (%s)", err, rec.Body.String())
	}
	return rec, env
}

func TestExecuteEndpoint(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc)
	body := `{"sourceCode":"print(1)","language":"python","problemId":4,
		"testCases":[{"id":"a","input":"","expectedOutput":"1","isHidden":true,"timeLimitMs":500}]}`
	rec, env := do(t, router, http.MethodPost, "/api/v1/judge/executions", body)
	if rec.Code != http.StatusOK || env.Code != int(appErr.Success) {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}
	if env.TraceID == "" || rec.Header().Get("X-Trace-Id") != env.TraceID {
		t.Fatalf("trace id must be echoed, got %q", env.TraceID)
	}
	var status model.RunStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode status failed: %v", err)
	}
	if status.ExecutionID != "exec-1" || status.Verdict == nil || status.Verdict.Status != model.StatusAccepted {
		t.Fatalf("unexpected status %+v", status)
	}
	got := svc.lastReq
	if got.Language != "python" || got.ProblemID != 4 || len(got.TestCases) != 1 {
		t.Fatalf("unexpected request %+v", got)
	}
	if tc := got.TestCases[0]; !tc.IsHidden || tc.TimeLimitMs != 500 || tc.ExpectedOutput != "1" {
		t.Fatalf("unexpected test case %+v", tc)
	}
}

func TestExecuteEndpointProblemCases(t *testing.T) {
	svc := &fakeService{}
	rec, env := do(t, newRouter(svc), http.MethodPost, "/api/v1/judge/executions", `{"sourceCode":"def square(x): return x*x","language":"python","problemId":101}`)
	if rec.Code != http.StatusOK || env.Code != int(appErr.Success) {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}
	if svc.lastReq.ProblemID != 101 || len(svc.lastReq.TestCases) != 0 {
		t.Fatalf("problem id must reach the service without cases, got %+v", svc.lastReq)
	}
}

func TestExecuteEndpointErrors(t *testing.T) {
	cases := []struct {
		name   string
		svc    *fakeService
		body   string
		status int
		code   appErr.ErrorCode
	}{
		{name: "bad json", svc: &fakeService{}, body: `{`, status: http.StatusBadRequest, code: appErr.InvalidParams},
		{name: "time limit too large", svc: &fakeService{}, body: `{"sourceCode":"x","language":"c","testCases":[{"id":"1","timeLimitMs":9223372036854775807}]}`, status: http.StatusBadRequest, code: appErr.InvalidParams},
		{name: "negative time limit", svc: &fakeService{}, body: `{"sourceCode":"x","language":"c","testCases":[{"id":"1","timeLimitMs":-1}]}`, status: http.StatusBadRequest, code: appErr.InvalidParams},
		{name: "negative problem id", svc: &fakeService{}, body: `{"sourceCode":"x","language":"c","problemId":-2,"testCases":[{"id":"1"}]}`, status: http.StatusBadRequest, code: appErr.InvalidParams},
		{
			name:   "no cases and no problem",
			svc:    &fakeService{execErr: appErr.New(appErr.TestCasesEmpty)},
			body:   `{"sourceCode":"x","language":"c"}`,
			status: http.StatusBadRequest,
			code:   appErr.TestCasesEmpty,
		},
		{
			name:   "admission rejected",
			svc:    &fakeService{execErr: appErr.New(appErr.JudgeQueueFull).WithMessage("worker pool is full")},
			body:   `{"sourceCode":"x","language":"c","testCases":[{"id":"1"}]}`,
			status: appErr.JudgeQueueFull.HTTPStatus(),
			code:   appErr.JudgeQueueFull,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, newRouter(tc.svc), http.MethodPost, "/api/v1/judge/executions", tc.body)
			if rec.Code != tc.status || env.Code != int(tc.code) {
				t.Fatalf("expected %d/%d, got %d/%d", tc.status, tc.code, rec.Code, env.Code)
			}
		})
	}
}

func TestGetStatusEndpoint(t *testing.T) {
	svc := &fakeService{statuses: map[string]model.RunStatus{
		"exec-2": {ExecutionID: "exec-2", State: model.RunRunning},
	}}
	router := newRouter(svc)

	rec, env := do(t, router, http.MethodGet, "/api/v1/judge/executions/exec-2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code %d", rec.Code)
	}
	var status model.RunStatus
	_ = json.Unmarshal(env.Data, &status)
	if status.State != model.RunRunning {
		t.Fatalf("unexpected status %+v", status)
	}

	rec, env = do(t, router, http.MethodGet, "/api/v1/judge/executions/missing", "")
	if rec.Code != appErr.ExecutionNotFound.HTTPStatus() || env.Code != int(appErr.ExecutionNotFound) {
		t.Fatalf("expected not found, got %d %+v", rec.Code, env)
	}
}

func TestBackendEndpoint(t *testing.T) {
	rec, env := do(t, newRouter(&fakeService{}), http.MethodGet, "/api/v1/judge/backend", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code %d", rec.Code)
	}
	var info service.BackendInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatalf("decode info failed: %v", err)
	}
	if info.Name != "container" || info.SlotsTotal != 4 {
		t.Fatalf("unexpected info %+v", info)
	}
}
