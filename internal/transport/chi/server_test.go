package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/domain"
	domchat "github.com/kailas-cloud/hybridchat/internal/domain/chat"
	"github.com/kailas-cloud/hybridchat/internal/domain/route"
	domusage "github.com/kailas-cloud/hybridchat/internal/domain/usage"
	healthuc "github.com/kailas-cloud/hybridchat/internal/usecase/health"
)

// --- Mocks ---

type mockChat struct {
	answer  domchat.Answer
	err     error
	queries []string
}

func (m *mockChat) Ask(_ context.Context, query string) (domchat.Answer, error) {
	m.queries = append(m.queries, query)
	return m.answer, m.err
}

type mockUsage struct {
	periods []domusage.Period
}

func (m *mockUsage) GetReport(_ context.Context, p domusage.Period) domusage.Report {
	m.periods = append(m.periods, p)
	return domusage.NewReport(p, 1760745600000, 1760832000000, "gpt-test",
		domusage.Counters{Requests: 3, PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30})
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

type fixture struct {
	chat   *mockChat
	usage  *mockUsage
	health *mockHealth
	router http.Handler
}

func newFixture(apiKeys ...string) *fixture {
	f := &fixture{
		chat:  &mockChat{},
		usage: &mockUsage{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.CheckLLM: healthuc.CheckOK},
		}},
	}
	r := chi.NewRouter()
	r.Use(CORSMiddleware([]string{"*"}, 300))
	r.Use(BearerAuthMiddleware(apiKeys))
	NewServer(f.chat, f.usage, f.health, zap.NewNop()).Mount(r)
	f.router = r
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func postChat(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

// --- POST /chat ---

func TestChat_MissingQuery(t *testing.T) {
	bodies := []string{
		``,
		`not json`,
		`[]`,
		`"hello"`,
		`null`,
		`{}`,
		`{"query": 42}`,
		`{"query": null}`,
		`{"question": "hi"}`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			f := newFixture()
			rr := f.do(postChat(body))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if msg := decodeError(t, rr); msg != "No query provided" {
				t.Errorf("error = %q, want %q", msg, "No query provided")
			}
			if len(f.chat.queries) != 0 {
				t.Error("chat service must not be called")
			}
		})
	}
}

func TestChat_Success(t *testing.T) {
	f := newFixture()
	f.chat.answer = domchat.Answer{
		Text:     "It is sunny.",
		Decision: route.Classified(route.Web, "web"),
		Path:     domchat.PathAgent,
	}

	rr := f.do(postChat(`{"query": "weather in Oslo?"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response != "It is sunny." {
		t.Errorf("response = %q", resp.Response)
	}
	if got := rr.Header().Get(HeaderRoute); got != "web" {
		t.Errorf("X-Route = %q, want web", got)
	}
	if got := rr.Header().Get(HeaderAnswerPath); got != "agent" {
		t.Errorf("X-Answer-Path = %q, want agent", got)
	}
	if len(f.chat.queries) != 1 || f.chat.queries[0] != "weather in Oslo?" {
		t.Errorf("queries = %v", f.chat.queries)
	}
}

func TestChat_BlankQueryIsForwarded(t *testing.T) {
	for _, q := range []string{``, `   `} {
		f := newFixture()
		f.chat.answer = domchat.Answer{Text: "Hi!", Decision: route.Classified(route.AI, "ai"), Path: domchat.PathDirect}

		rr := f.do(postChat(fmt.Sprintf(`{"query": %q}`, q)))

		if rr.Code != http.StatusOK {
			t.Fatalf("query %q: status = %d, want 200", q, rr.Code)
		}
		if len(f.chat.queries) != 1 || f.chat.queries[0] != q {
			t.Errorf("queries = %q, want [%q]", f.chat.queries, q)
		}
	}
}

func TestChat_EmptyResponse(t *testing.T) {
	f := newFixture()
	f.chat.answer = domchat.Answer{Decision: route.Classified(route.AI, "ai"), Path: domchat.PathDirect}
	f.chat.err = fmt.Errorf("direct path: %w", domain.ErrEmptyResponse)

	rr := f.do(postChat(`{"query": "hi"}`))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "No response generated" {
		t.Errorf("error = %q", msg)
	}
	if got := rr.Header().Get(HeaderAnswerPath); got != "direct" {
		t.Errorf("X-Answer-Path = %q, want direct", got)
	}
}

func TestChat_ServiceError(t *testing.T) {
	f := newFixture()
	f.chat.err = fmt.Errorf("direct answer: %w", domain.ErrModelInvocation)

	rr := f.do(postChat(`{"query": "hi"}`))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if msg := decodeError(t, rr); msg != f.chat.err.Error() {
		t.Errorf("error = %q, want %q", msg, f.chat.err.Error())
	}
}

func TestChat_MethodNotAllowed(t *testing.T) {
	f := newFixture()
	rr := f.do(httptest.NewRequest(http.MethodGet, "/chat", http.NoBody))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

// --- GET /usage ---

func TestUsage_Periods(t *testing.T) {
	tests := []struct {
		url  string
		want domusage.Period
	}{
		{"/usage", domusage.PeriodMonth},
		{"/usage?period=month", domusage.PeriodMonth},
		{"/usage?period=day", domusage.PeriodDay},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			f := newFixture()
			rr := f.do(httptest.NewRequest(http.MethodGet, tt.url, http.NoBody))

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			var resp UsageResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Period != string(tt.want) {
				t.Errorf("period = %q, want %q", resp.Period, tt.want)
			}
			if resp.Model != "gpt-test" || resp.Usage.TotalTokens != 30 || resp.Usage.Requests != 3 {
				t.Errorf("unexpected usage: %+v", resp)
			}
			if resp.PeriodStartAt.UnixMilli() != 1760745600000 {
				t.Errorf("period_start_at = %v", resp.PeriodStartAt)
			}
		})
	}
}

func TestUsage_InvalidPeriod(t *testing.T) {
	for _, url := range []string{"/usage?period=week", "/usage?period=day&period=month"} {
		t.Run(url, func(t *testing.T) {
			f := newFixture()
			rr := f.do(httptest.NewRequest(http.MethodGet, url, http.NoBody))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if msg := decodeError(t, rr); msg == "" {
				t.Error("expected error message")
			}
			if len(f.usage.periods) != 0 {
				t.Error("usage service must not be called")
			}
		})
	}
}

// --- GET /health ---

func TestHealth_OK(t *testing.T) {
	f := newFixture()
	rr := f.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Checks["llm"] != "ok" {
		t.Errorf("unexpected health: %+v", resp)
	}
}

func TestHealth_NotHealthy(t *testing.T) {
	for _, status := range []healthuc.Status{healthuc.Degraded, healthuc.Unhealthy} {
		f := newFixture()
		f.health.report = healthuc.Report{
			Status: status,
			Checks: map[string]healthuc.CheckResult{healthuc.CheckLLM: healthuc.CheckError},
		}
		rr := f.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", status, rr.Code)
		}
	}
}

// --- GET /metrics ---

func TestMetrics(t *testing.T) {
	f := newFixture()
	rr := f.do(httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// --- CORS and auth ---

func TestCORS_SimpleRequest(t *testing.T) {
	f := newFixture()
	f.chat.answer = domchat.Answer{Text: "ok", Decision: route.Classified(route.AI, "ai"), Path: domchat.PathDirect}

	req := postChat(`{"query": "hi"}`)
	req.Header.Set("Origin", "https://example.com")
	rr := f.do(req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rr.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, HeaderRoute) {
		t.Errorf("Access-Control-Expose-Headers = %q, want it to include %s", got, HeaderRoute)
	}
}

func TestCORS_PreflightBypassesAuth(t *testing.T) {
	f := newFixture("secret")

	req := httptest.NewRequest(http.MethodOptions, "/chat", http.NoBody)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	rr := f.do(req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST", got)
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got != "300" {
		t.Errorf("Access-Control-Max-Age = %q, want 300", got)
	}
}

func TestAuth_ChatRequiresKey(t *testing.T) {
	f := newFixture("secret")

	rr := f.do(postChat(`{"query": "hi"}`))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	f.chat.answer = domchat.Answer{Text: "ok", Decision: route.Classified(route.AI, "ai"), Path: domchat.PathDirect}
	req := postChat(`{"query": "hi"}`)
	req.Header.Set("Authorization", "Bearer secret")
	if rr := f.do(req); rr.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", rr.Code)
	}
}

func TestDecodeQuery_WrapsMissingQuery(t *testing.T) {
	rr := httptest.NewRecorder()
	_, err := decodeQuery(rr, postChat(`{`))
	if !errors.Is(err, domain.ErrMissingQuery) {
		t.Errorf("expected ErrMissingQuery, got %v", err)
	}
}
