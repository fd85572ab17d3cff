package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/careercrew/internal/orchestrator"
	"github.com/aristath/careercrew/internal/provider"
	"github.com/aristath/careercrew/internal/scheduler"
)

// MockEngine is a test double for Engine
type MockEngine struct {
	ExecuteAllFn func(ctx context.Context, userInfo string) *orchestrator.Report
	inputs       []string
}

func (m *MockEngine) ExecuteAll(ctx context.Context, userInfo string) *orchestrator.Report {
	m.inputs = append(m.inputs, userInfo)
	if m.ExecuteAllFn != nil {
		return m.ExecuteAllFn(ctx, userInfo)
	}
	return &orchestrator.Report{RunID: "run-1", Text: "# Report", Status: orchestrator.StatusComplete, Path: orchestrator.PathBatch}
}

func (m *MockEngine) Tasks() []scheduler.Task { return scheduler.CareerTasks() }

func (m *MockEngine) Chain(kind scheduler.Kind) orchestrator.Chain {
	return orchestrator.Chain{{Name: string(kind) + "-primary"}}
}

func testServer(engine Engine, mutate ...func(*Options)) http.Handler {
	opts := Options{
		Engine: engine,
		Providers: []provider.Handle{
			{Name: "gemini_primary", Type: provider.TypeGemini, Model: "gemini-2.0-flash", CredentialEnv: "GEMINI_API_KEY"},
			{Name: "perplexity", Type: provider.TypeChat, Model: "sonar-reasoning-pro", CredentialEnv: "PERPLEXITY_API_KEY"},
			{Name: "ollama", Type: provider.TypeCommand, Command: "ollama"},
		},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		LookupEnv: func(k string) string { return map[string]string{"GEMINI_API_KEY": "x"}[k] },
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewServer(opts).Handler()
}

func postReport(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate-career-report", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// TestGenerateReport maps each report status to the response body.
func TestGenerateReport(t *testing.T) {
	tests := []struct {
		name        string
		status      orchestrator.Status
		wantSuccess bool
		wantMessage string
	}{
		{"complete", orchestrator.StatusComplete, true, MessageComplete},
		{"degraded", orchestrator.StatusDegraded, false, MessageDegraded},
		{"emergency", orchestrator.StatusEmergency, false, MessageEmergency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &MockEngine{ExecuteAllFn: func(ctx context.Context, userInfo string) *orchestrator.Report {
				return &orchestrator.Report{RunID: "run-42", Text: "report for " + userInfo, Status: tt.status}
			}}

			rr := postReport(t, testServer(engine), `{"user_info": "  Sam, student  "}`)
			require.Equal(t, http.StatusOK, rr.Code, "degraded reports still return 200")

			var resp CareerResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, "report for Sam, student", resp.Report)
			assert.Equal(t, tt.wantSuccess, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, "run-42", resp.RunID)
			assert.Equal(t, []string{"Sam, student"}, engine.inputs, "input is trimmed")
		})
	}
}

func TestGenerateReport_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", "", "Invalid request body"},
		{"malformed json", `{"user_info":`, "Invalid request body"},
		{"wrong type", `{"user_info": 42}`, "Invalid request body"},
		{"missing field", `{}`, ErrEmptyInput.Error()},
		{"blank input", `{"user_info": "   \n "}`, ErrEmptyInput.Error()},
		{"too long", `{"user_info": "` + strings.Repeat("a", 51) + `"}`, ErrInputTooLong.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &MockEngine{}
			h := testServer(engine, func(o *Options) { o.MaxInputLen = 50 })

			rr := postReport(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Error)
			assert.NotEmpty(t, resp.RequestID)
			assert.Empty(t, engine.inputs, "engine must not run for rejected input")
		})
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	testServer(&MockEngine{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 7, body["agents"])
	assert.EqualValues(t, 2, body["apis_configured"], "gemini has a key, the command needs none")
}

func TestStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	testServer(&MockEngine{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "AI Career Advisor", body.System)
	assert.Equal(t, "1.0.0", body.Version)
	assert.Equal(t, "operational", body.Status)
	assert.Len(t, body.Agents, 7)
	assert.Equal(t, "Personal Profile Analyst", body.Agents[0])
	assert.Equal(t, []string{"market_analysis-primary"}, body.Chains["market_analysis"])
	require.Len(t, body.LLMProviders, 3)
	assert.True(t, body.LLMProviders[0].Configured)
	assert.False(t, body.LLMProviders[1].Configured)
}

func TestPagesAndStatic(t *testing.T) {
	h := testServer(&MockEngine{})

	for path, want := range map[string]string{
		"/":               "Get started",
		"/app":            "career-form",
		"/static/app.js":  "generate-career-report",
		"/static/app.css": "#report",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), want, path)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("careercrew_runs_total 0"))
	})
	h := testServer(&MockEngine{}, func(o *Options) { o.Metrics = metrics })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "careercrew_runs_total")
}

// TestGenerateReport_WithEngine runs a real engine behind the handler.
func TestGenerateReport_WithEngine(t *testing.T) {
	chains := orchestrator.Chains{}
	for _, kind := range scheduler.Kinds(scheduler.CareerTasks()) {
		chains[kind] = orchestrator.Chain{{Name: string(kind), Type: "test"}}
	}
	engine, err := orchestrator.New(orchestrator.Options{
		Invoker: provider.InvokerFunc(func(ctx context.Context, h provider.Handle, p provider.Prompt) (string, error) {
			return "## " + h.Name, nil
		}),
		Chains: chains,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	rr := postReport(t, testServer(engine), `{"user_info": "Jordan"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp CareerResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Report, orchestrator.ReportHeader))
	assert.Contains(t, resp.Report, "## report_generation")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(ErrInputTooLong))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
	assert.Equal(t, "An unexpected error occurred", safeMessage(io.ErrClosedPipe))
}

// TestServe_ShutsDownOnCancel verifies Serve returns cleanly once ctx ends.
func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
