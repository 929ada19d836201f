package chat

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/domain"
	domchat "github.com/kailas-cloud/hybridchat/internal/domain/chat"
	"github.com/kailas-cloud/hybridchat/internal/domain/llm"
	"github.com/kailas-cloud/hybridchat/internal/domain/route"
	"github.com/kailas-cloud/hybridchat/internal/domain/search"
	"github.com/kailas-cloud/hybridchat/internal/metrics"
	"github.com/kailas-cloud/hybridchat/internal/usecase/agent"
	"github.com/kailas-cloud/hybridchat/internal/usecase/toolbox"
)

func TestMain(m *testing.M) {
	metrics.RegisterLLMMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockClassifier struct {
	decision route.Decision
}

func (m *mockClassifier) Classify(_ context.Context, _ string) route.Decision { return m.decision }

type mockAgent struct {
	result agent.Result
	err    error
	calls  int
}

func (m *mockAgent) Run(_ context.Context, _ string) (agent.Result, error) {
	m.calls++
	return m.result, m.err
}

type mockCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (llm.Completion, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return llm.Completion{}, m.err
	}
	return llm.Completion{Content: m.reply}, nil
}

// --- Tests ---

func TestAsk_AIRoute(t *testing.T) {
	ag := &mockAgent{}
	model := &mockCompleter{reply: "4"}
	svc := New(&mockClassifier{decision: route.Classified(route.AI, "ai")}, ag, model, zap.NewNop())

	ans, err := svc.Ask(context.Background(), "What is 2+2?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "4" || ans.Path != domchat.PathDirect || ans.Route() != route.AI {
		t.Errorf("unexpected answer: %+v", ans)
	}
	if ag.calls != 0 {
		t.Error("agent must not run on the ai route")
	}
	if len(model.prompts) != 1 || model.prompts[0] != "What is 2+2?" {
		t.Errorf("direct prompt = %v, want the raw query", model.prompts)
	}
}

func TestAsk_WebRouteSuccess(t *testing.T) {
	ag := &mockAgent{result: agent.Result{Output: "Sunny.", Iterations: 2}}
	model := &mockCompleter{reply: "unused"}
	svc := New(&mockClassifier{decision: route.Classified(route.Web, "web")}, ag, model, zap.NewNop())

	ans, err := svc.Ask(context.Background(), "weather today?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "Sunny." || ans.Path != domchat.PathAgent || ans.Iterations != 2 {
		t.Errorf("unexpected answer: %+v", ans)
	}
	if len(model.prompts) != 0 {
		t.Error("direct answer must not run when the agent succeeds")
	}
}

func TestAsk_WebFailureFallsBack(t *testing.T) {
	for _, agentErr := range []error{
		domain.ErrSearchInvocation,
		domain.ErrModelInvocation,
	} {
		t.Run(agentErr.Error(), func(t *testing.T) {
			before := testutil.ToFloat64(metrics.FallbacksTotal)

			ag := &mockAgent{err: agentErr}
			model := &mockCompleter{reply: "direct answer"}
			svc := New(&mockClassifier{decision: route.Classified(route.Web, "web")}, ag, model, zap.NewNop())

			ans, err := svc.Ask(context.Background(), "latest news")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ans.Path != domchat.PathFallback || ans.Route() != route.Web {
				t.Errorf("unexpected answer: %+v", ans)
			}
			if !errors.Is(ans.FallbackErr, agentErr) {
				t.Errorf("FallbackErr = %v, want %v", ans.FallbackErr, agentErr)
			}

			// Fallback text equals what the ai route would have produced.
			aiAns, err := New(&mockClassifier{decision: route.Classified(route.AI, "ai")}, &mockAgent{}, model, zap.NewNop()).
				Ask(context.Background(), "latest news")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ans.Text != aiAns.Text {
				t.Errorf("fallback text %q differs from direct text %q", ans.Text, aiAns.Text)
			}

			if got := testutil.ToFloat64(metrics.FallbacksTotal) - before; got != 1 {
				t.Errorf("fallback counter delta = %v, want 1", got)
			}
		})
	}
}

func TestAsk_FallbackFailure(t *testing.T) {
	ag := &mockAgent{err: domain.ErrSearchInvocation}
	model := &mockCompleter{err: domain.ErrModelInvocation}
	svc := New(&mockClassifier{decision: route.Classified(route.Web, "web")}, ag, model, zap.NewNop())

	_, err := svc.Ask(context.Background(), "latest news")
	if !errors.Is(err, domain.ErrModelInvocation) {
		t.Fatalf("expected ErrModelInvocation, got %v", err)
	}
}

func TestAsk_DirectFailure(t *testing.T) {
	model := &mockCompleter{err: domain.ErrModelInvocation}
	svc := New(&mockClassifier{decision: route.Classified(route.AI, "ai")}, &mockAgent{}, model, zap.NewNop())

	_, err := svc.Ask(context.Background(), "hello")
	if !errors.Is(err, domain.ErrModelInvocation) {
		t.Fatalf("expected ErrModelInvocation, got %v", err)
	}
}

func TestAsk_DefaultedClassification(t *testing.T) {
	ag := &mockAgent{}
	model := &mockCompleter{reply: "hello there"}
	svc := New(&mockClassifier{decision: route.Defaulted(domain.ErrModelInvocation)}, ag, model, zap.NewNop())

	ans, err := svc.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Route() != route.AI || !ans.Decision.Defaulted || ans.Path != domchat.PathDirect {
		t.Errorf("unexpected answer: %+v", ans)
	}
	if ag.calls != 0 {
		t.Error("agent must not run when classification defaulted")
	}
}

func TestAsk_EmptyAgentOutput(t *testing.T) {
	ag := &mockAgent{result: agent.Result{Output: "", Iterations: 1}}
	svc := New(&mockClassifier{decision: route.Classified(route.Web, "web")}, ag, &mockCompleter{}, zap.NewNop())

	ans, err := svc.Ask(context.Background(), "q")
	if !errors.Is(err, domain.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if !ans.Empty() || ans.Path != domchat.PathAgent {
		t.Errorf("expected empty agent answer, got %+v", ans)
	}
}

func TestAsk_EmptyDirectAnswer(t *testing.T) {
	svc := New(&mockClassifier{decision: route.Classified(route.AI, "ai")}, &mockAgent{}, &mockCompleter{}, zap.NewNop())

	ans, err := svc.Ask(context.Background(), "q")
	if !errors.Is(err, domain.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if ans.Path != domchat.PathDirect {
		t.Errorf("Path = %q, want direct", ans.Path)
	}
}

type loopingPlanner struct {
	calls int
}

func (p *loopingPlanner) Chat(_ context.Context, _ []llm.Message, _ []llm.ToolSpec) (llm.Completion, error) {
	p.calls++
	return llm.Completion{ToolCalls: []llm.ToolCall{
		{ID: "c", Name: "web_search", Arguments: `{"query":"news"}`},
	}}, nil
}

type staticSearcher struct{}

func (staticSearcher) Search(_ context.Context, _ string) ([]search.Result, error) {
	return []search.Result{{Title: "t", URL: "https://example.com", Snippet: "nothing new"}}, nil
}

func TestAsk_IterationCapAnswersOnAgentPath(t *testing.T) {
	before := testutil.ToFloat64(metrics.FallbacksTotal)

	planner := &loopingPlanner{}
	model := &mockCompleter{reply: "direct answer"}
	exec := agent.NewExecutor(planner, toolbox.Default(staticSearcher{}, model), agent.Config{}, zap.NewNop())
	svc := New(&mockClassifier{decision: route.Classified(route.Web, "web")}, exec, model, zap.NewNop())

	ans, err := svc.Ask(context.Background(), "latest news")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if planner.calls != agent.DefaultMaxIterations {
		t.Errorf("planner calls = %d, want %d", planner.calls, agent.DefaultMaxIterations)
	}
	if ans.Path != domchat.PathAgent || ans.Text != agent.StoppedOutput {
		t.Errorf("unexpected answer: path=%s text=%q", ans.Path, ans.Text)
	}
	if len(model.prompts) != 0 {
		t.Errorf("direct answer must not run, prompts = %v", model.prompts)
	}
	if got := testutil.ToFloat64(metrics.FallbacksTotal) - before; got != 0 {
		t.Errorf("fallback counter delta = %v, want 0", got)
	}
}
