package domain

import (
	"context"

	"github.com/kailas-cloud/hybridchat/internal/domain/llm"
)

// Model is the language model contract shared between layers.
type Model interface {
	// Complete sends a single user prompt and returns the model's reply.
	Complete(ctx context.Context, prompt string) (llm.Completion, error)
	// Chat sends a full transcript and lets the model call any of tools.
	Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (llm.Completion, error)
}
