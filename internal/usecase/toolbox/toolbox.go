// Package toolbox provides the tools offered to the web agent.
package toolbox

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/hybridchat/internal/domain/llm"
	"github.com/kailas-cloud/hybridchat/internal/domain/search"
	"github.com/kailas-cloud/hybridchat/internal/domain/tool"
)

// Tool display names and descriptions shown to the model.
const (
	WebSearchName        = "Web Search"
	WebSearchDescription = "Useful for searching current information on the internet"
	AIResponseName       = "AI Response"
	AIResponseDesc       = "Use for general knowledge questions"
)

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Completer produces a single model completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (llm.Completion, error)
}

// WebSearch looks up current information and returns the raw result text.
type WebSearch struct {
	searcher Searcher
}

var _ tool.Tool = (*WebSearch)(nil)

// NewWebSearch creates the Web Search tool.
func NewWebSearch(s Searcher) *WebSearch { return &WebSearch{searcher: s} }

// Name implements tool.Tool.
func (w *WebSearch) Name() string { return WebSearchName }

// Description implements tool.Tool.
func (w *WebSearch) Description() string { return WebSearchDescription }

// Call implements tool.Tool.
func (w *WebSearch) Call(ctx context.Context, input string) (string, error) {
	results, err := w.searcher.Search(ctx, input)
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}
	return search.Render(results), nil
}

// AIResponse answers from the model's own knowledge.
type AIResponse struct {
	model Completer
}

var _ tool.Tool = (*AIResponse)(nil)

// NewAIResponse creates the AI Response tool.
func NewAIResponse(m Completer) *AIResponse { return &AIResponse{model: m} }

// Name implements tool.Tool.
func (a *AIResponse) Name() string { return AIResponseName }

// Description implements tool.Tool.
func (a *AIResponse) Description() string { return AIResponseDesc }

// Call implements tool.Tool.
func (a *AIResponse) Call(ctx context.Context, input string) (string, error) {
	c, err := a.model.Complete(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ai response: %w", err)
	}
	return c.Content, nil
}

// Default returns the agent's tool set in display order: Web Search, AI Response.
func Default(s Searcher, m Completer) *tool.Set {
	return tool.NewSet(NewWebSearch(s), NewAIResponse(m))
}
