package executor

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"codejudge/internal/common/httpclient"
	"codejudge/internal/judge/evaluator"
	"codejudge/internal/judge/language"
	"codejudge/internal/judge/model"
	"codejudge/internal/judge/prepare"
	"codejudge/internal/judge/sandbox/observer"
	"codejudge/internal/judge/verdict"
	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultRemoteURL          = "https://judge0-ce.p.rapidapi.com"
	defaultRemoteHost         = "judge0-ce.p.rapidapi.com"
	defaultPollAttempts       = 10
	defaultPollInterval       = 500 * time.Millisecond
	defaultRemoteTimeoutMs    = 15000
	judge0StatusProcessing    = 2
	judge0StatusAccepted      = 3
	judge0StatusWrongAnswer   = 4
	judge0StatusTimeLimit     = 5
	judge0StatusCompileFailed = 6
)

// RemoteConfig configures the Judge0 client.
type RemoteConfig struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"apiKey"`
	APIHost        string `yaml:"apiHost"`
	PollAttempts   int    `yaml:"pollAttempts"`
	PollIntervalMs int64  `yaml:"pollIntervalMs"`
	TimeoutMs      int64  `yaml:"timeoutMs"`
}

// RemoteExecutor delegates each test case to a Judge0 compatible API.
type RemoteExecutor struct {
	client    *httpclient.Client
	languages *language.Registry
	preparer  *prepare.Preparer
	metrics   observer.MetricsRecorder
	attempts  int
	interval  time.Duration
}

type judge0Submission struct {
	SourceCode   string  `json:"source_code"`
	LanguageID   int     `json:"language_id"`
	Stdin        string  `json:"stdin"`
	CPUTimeLimit float64 `json:"cpu_time_limit,omitempty"`
}

type judge0Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type judge0Result struct {
	Token         string        `json:"token"`
	Stdout        *string       `json:"stdout"`
	Stderr        *string       `json:"stderr"`
	CompileOutput *string       `json:"compile_output"`
	Message       *string       `json:"message"`
	Time          flexibleFloat `json:"time"`
	Memory        flexibleFloat `json:"memory"`
	Status        *judge0Status `json:"status"`
}

// flexibleFloat accepts numbers and numeric strings; Judge0 sends time as a string.
type flexibleFloat float64

func (f *flexibleFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexibleFloat(v)
	return nil
}

// NewRemoteExecutor creates a Judge0 executor. RapidAPI headers are sent only when APIKey is set.
func NewRemoteExecutor(cfg RemoteConfig, languages *language.Registry, preparer *prepare.Preparer, metrics observer.MetricsRecorder) *RemoteExecutor {
	if cfg.URL == "" {
		cfg.URL = defaultRemoteURL
	}
	if cfg.APIHost == "" {
		cfg.APIHost = defaultRemoteHost
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = defaultPollAttempts
	}
	interval := defaultPollInterval
	if cfg.PollIntervalMs > 0 {
		interval = time.Duration(cfg.PollIntervalMs) * time.Millisecond
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = defaultRemoteTimeoutMs
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["X-RapidAPI-Key"] = cfg.APIKey
		headers["X-RapidAPI-Host"] = cfg.APIHost
	}
	return &RemoteExecutor{
		client:    httpclient.New(cfg.URL, time.Duration(cfg.TimeoutMs)*time.Millisecond, headers),
		languages: languages,
		preparer:  preparer,
		metrics:   observer.OrNoop(metrics),
		attempts:  cfg.PollAttempts,
		interval:  interval,
	}
}

// Name returns the backend name.
func (e *RemoteExecutor) Name() string {
	return BackendRemote
}

// Execute submits the prepared source once per test case.
func (e *RemoteExecutor) Execute(ctx context.Context, req model.ExecutionRequest) (v model.ExecutionVerdict) {
	start := time.Now()
	requested := len(req.TestCases)
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "remote execution panicked", zap.Any("panic", r), zap.Stack("stack"))
			v = verdict.Rejected(fmt.Sprintf("internal error: %v", r), requested)
		}
		e.metrics.ObserveVerdict(ctx, BackendRemote, string(v.Status), time.Since(start).Milliseconds())
	}()

	if err := e.preparer.Screen(req.SourceCode); err != nil {
		return verdict.CompileError(errorMessage(err), requested)
	}
	lang, err := e.languages.Resolve(req.Language)
	if err != nil {
		return verdict.CompileError(errorMessage(err), requested)
	}
	if lang.RemoteID <= 0 {
		return verdict.CompileError(fmt.Sprintf("language %s is not supported by the remote backend", lang.ID), requested)
	}
	problemID := e.preparer.ResolveProblemID(req.ProblemID, req.TestCases)
	source, err := e.preparer.Prepare(req.SourceCode, lang.ID, problemID)
	if err != nil {
		return verdict.CompileError(errorMessage(err), requested)
	}

	results := make([]model.TestCaseResult, 0, requested)
	for _, tc := range req.TestCases {
		res, err := e.runCase(ctx, lang, source, tc)
		if err != nil {
			logger.Warn(ctx, "remote test case failed", zap.String("test_id", tc.ID), zap.Error(err))
			res = model.TestCaseResult{
				TestCaseID:     tc.ID,
				Status:         model.StatusRuntimeError,
				Input:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
				ErrorMessage:   "failed to run program: " + err.Error(),
			}
			results = append(results, res)
			break
		}
		if res.Status == model.StatusCompileError {
			return verdict.CompileError(res.ErrorMessage, requested)
		}
		results = append(results, res)
		e.metrics.ObserveRun(ctx, lang.ID, string(res.Status), res.RuntimeMs, int64(res.MemoryMB*1024))

		if !res.Passed && tc.IsHidden {
			break
		}
	}
	return verdict.Aggregate(results, requested)
}

func (e *RemoteExecutor) runCase(ctx context.Context, lang language.Spec, source string, tc model.TestCase) (model.TestCaseResult, error) {
	payload := judge0Submission{SourceCode: source, LanguageID: lang.RemoteID, Stdin: tc.Input}
	if tc.TimeLimitMs > 0 {
		payload.CPUTimeLimit = float64(tc.TimeLimitMs) / 1000
	}

	var submitted judge0Result
	if _, err := e.client.DoJSON(ctx, http.MethodPost, "/submissions?base64_encoded=false&wait=true", payload, &submitted); err != nil {
		return model.TestCaseResult{}, appErr.Wrapf(err, appErr.BackendUnavailable, "submit to judge0 failed")
	}
	final := submitted
	if !finished(submitted) {
		if submitted.Token == "" {
			return model.TestCaseResult{}, appErr.New(appErr.RemoteJudgeError).WithMessage("judge0 returned no token")
		}
		polled, err := e.poll(ctx, submitted.Token)
		if err != nil {
			return model.TestCaseResult{}, err
		}
		final = polled
	}
	return mapJudge0Result(tc, final), nil
}

func (e *RemoteExecutor) poll(ctx context.Context, token string) (judge0Result, error) {
	path := "/submissions/" + token + "?base64_encoded=false"
	for i := 0; i < e.attempts; i++ {
		var res judge0Result
		code, err := e.client.DoJSON(ctx, http.MethodGet, path, nil, &res)
		if err == nil && finished(res) {
			return res, nil
		}
		if err != nil {
			logger.Debug(ctx, "poll judge0 failed", zap.String("token", token), zap.Int("http_status", code), zap.Error(err))
		}

		timer := time.NewTimer(e.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return judge0Result{}, appErr.Wrapf(ctx.Err(), appErr.Timeout, "wait for judge0 result canceled")
		case <-timer.C:
		}
	}
	return judge0Result{}, appErr.New(appErr.RemoteJudgeError).WithMessage("timeout waiting for judge0 result")
}

func finished(res judge0Result) bool {
	return res.Status != nil && res.Status.ID > judge0StatusProcessing
}

func mapJudge0Result(tc model.TestCase, res judge0Result) model.TestCaseResult {
	out := model.TestCaseResult{
		TestCaseID:     tc.ID,
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
		ActualOutput:   strings.TrimSpace(deref(res.Stdout)),
		RuntimeMs:      int64(math.Round(float64(res.Time) * 1000)),
		MemoryMB:       float64(res.Memory) / 1024,
	}

	switch res.Status.ID {
	case judge0StatusAccepted:
		if evaluator.OutputsMatch(tc.ExpectedOutput, deref(res.Stdout)) {
			out.Status = model.StatusAccepted
			out.Passed = true
		} else {
			out.Status = model.StatusWrongAnswer
		}
	case judge0StatusWrongAnswer:
		out.Status = model.StatusWrongAnswer
	case judge0StatusTimeLimit:
		out.Status = model.StatusTimeLimitExceeded
		out.ErrorMessage = "Time limit exceeded"
	case judge0StatusCompileFailed:
		out.Status = model.StatusCompileError
		out.ErrorMessage = firstNonEmpty(deref(res.CompileOutput), deref(res.Stderr), res.Status.Description)
	default:
		out.Status = model.StatusRuntimeError
		out.ErrorMessage = firstNonEmpty(deref(res.Stderr), deref(res.Message), res.Status.Description)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
