// Package agent runs a bounded tool-calling loop against a planner model.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/domain"
	"github.com/kailas-cloud/hybridchat/internal/domain/llm"
	"github.com/kailas-cloud/hybridchat/internal/domain/tool"
	"github.com/kailas-cloud/hybridchat/internal/metrics"
)

// DefaultSystemPrompt frames the agent for the model.
const DefaultSystemPrompt = "You are a helpful chatbot that can search the web or use AI to answer questions."

// DefaultMaxIterations caps planner calls per run.
const DefaultMaxIterations = 2

// StoppedOutput is the answer of a run that used up its iterations.
const StoppedOutput = "Agent stopped due to iteration limit or time limit."

// Planner picks the next step: a final answer or tool calls.
type Planner interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (llm.Completion, error)
}

// Step is one tool invocation and what it returned.
type Step struct {
	Tool        string
	Input       string
	Observation string
}

// Result is the outcome of a successful run.
type Result struct {
	Output     string
	Iterations int
	Steps      []Step
	// Stopped is set when the iteration cap ended the run; Output is StoppedOutput.
	Stopped bool
}

// Config holds executor settings. Zero values select defaults.
type Config struct {
	MaxIterations int
	SystemPrompt  string
}

// Executor drives the select, invoke, inspect loop.
type Executor struct {
	planner       Planner
	tools         *tool.Set
	specs         []llm.ToolSpec
	maxIterations int
	systemPrompt  string
	logger        *zap.Logger
}

// NewExecutor creates an executor over a fixed tool set.
func NewExecutor(planner Planner, tools *tool.Set, cfg Config, logger *zap.Logger) *Executor {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	all := tools.All()
	specs := make([]llm.ToolSpec, len(all))
	for i, t := range all {
		specs[i] = llm.ToolSpec{Name: t.Name(), Description: t.Description()}
	}

	return &Executor{
		planner:       planner,
		tools:         tools,
		specs:         specs,
		maxIterations: cfg.MaxIterations,
		systemPrompt:  cfg.SystemPrompt,
		logger:        logger,
	}
}

type state int

const (
	stateSelect state = iota
	stateInvoke
	stateInspect
	stateDone
)

// Run answers input. It stops at the first final answer and never calls the
// planner more than MaxIterations times. Running out is not an error: the
// result carries StoppedOutput with Stopped set.
// Planner failures wrap domain.ErrModelInvocation. Tool failures are returned as is.
func (e *Executor) Run(ctx context.Context, input string) (Result, error) {
	messages := []llm.Message{llm.System(e.systemPrompt), llm.User(input)}
	var (
		res     Result
		pending []llm.ToolCall
		st      = stateSelect
	)

	for {
		switch st {
		case stateSelect:
			res.Iterations++
			c, err := e.planner.Chat(ctx, messages, e.specs)
			if err != nil {
				metrics.AgentIterations.Observe(float64(res.Iterations))
				if !errors.Is(err, domain.ErrModelInvocation) {
					err = fmt.Errorf("%w: %w", domain.ErrModelInvocation, err)
				}
				return res, fmt.Errorf("agent iteration %d: %w", res.Iterations, err)
			}
			if len(c.ToolCalls) == 0 {
				res.Output = c.Content
				st = stateDone
				continue
			}
			messages = append(messages, llm.Message{
				Role:      llm.RoleAssistant,
				Content:   c.Content,
				ToolCalls: c.ToolCalls,
			})
			pending = c.ToolCalls
			st = stateInvoke

		case stateInvoke:
			for _, call := range pending {
				step, err := e.invoke(ctx, call)
				if err != nil {
					metrics.AgentIterations.Observe(float64(res.Iterations))
					return res, fmt.Errorf("agent iteration %d: %w", res.Iterations, err)
				}
				res.Steps = append(res.Steps, step)
				messages = append(messages, llm.ToolResult(call.ID, step.Observation))
			}
			pending = nil
			st = stateInspect

		case stateInspect:
			if res.Iterations >= e.maxIterations {
				res.Output = StoppedOutput
				res.Stopped = true
				st = stateDone
				continue
			}
			st = stateSelect

		case stateDone:
			metrics.AgentIterations.Observe(float64(res.Iterations))
			e.logger.Debug("Agent finished",
				zap.Int("iterations", res.Iterations),
				zap.Int("steps", len(res.Steps)),
				zap.Bool("stopped", res.Stopped),
			)
			return res, nil
		}
	}
}

// invoke runs one tool call. Unknown tools produce a corrective observation
// instead of an error so the planner can retry.
func (e *Executor) invoke(ctx context.Context, call llm.ToolCall) (Step, error) {
	input := toolInput(call.Arguments)

	t, ok := e.tools.Lookup(call.Name)
	if !ok {
		obs := fmt.Sprintf("%s is not a valid tool, try one of [%s].", call.Name, strings.Join(e.tools.Names(), ", "))
		e.logger.Debug("Planner requested unknown tool", zap.String("tool", call.Name))
		return Step{Tool: call.Name, Input: input, Observation: obs}, nil
	}

	obs, err := t.Call(ctx, input)
	if err != nil {
		return Step{}, fmt.Errorf("tool %s: %w", t.Name(), err)
	}

	e.logger.Debug("Tool invoked",
		zap.String("tool", t.Name()),
		zap.Int("observation_len", len(obs)),
	)
	return Step{Tool: t.Name(), Input: input, Observation: obs}, nil
}

// toolInput extracts the query argument; anything else is passed through raw.
func toolInput(arguments string) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || args.Query == "" {
		return arguments
	}
	return args.Query
}
