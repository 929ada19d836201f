package chat

import (
	"context"

	"github.com/kailas-cloud/hybridchat/internal/domain/llm"
	"github.com/kailas-cloud/hybridchat/internal/domain/route"
	"github.com/kailas-cloud/hybridchat/internal/usecase/agent"
)

// Classifier picks the route for a query.
type Classifier interface {
	Classify(ctx context.Context, query string) route.Decision
}

// Agent answers a query with tools.
type Agent interface {
	Run(ctx context.Context, input string) (agent.Result, error)
}

// Completer produces a direct model answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (llm.Completion, error)
}
