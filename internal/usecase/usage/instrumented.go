package usage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/domain"
	"github.com/kailas-cloud/hybridchat/internal/domain/llm"
	domusage "github.com/kailas-cloud/hybridchat/internal/domain/usage"
)

// InstrumentedModel wraps a domain.Model and records token usage of every successful call.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedModel struct {
	inner    domain.Model
	model    string
	recorder Recorder
	logger   *zap.Logger
}

// NewInstrumentedModel wraps a model with usage accounting. recorder can be nil.
func NewInstrumentedModel(inner domain.Model, model string, recorder Recorder, logger *zap.Logger) *InstrumentedModel {
	return &InstrumentedModel{
		inner:    inner,
		model:    model,
		recorder: recorder,
		logger:   logger,
	}
}

// Complete delegates to the inner model and records usage.
func (m *InstrumentedModel) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	start := time.Now()
	c, err := m.inner.Complete(ctx, prompt)
	if err != nil {
		m.logger.Error("Completion request failed",
			zap.String("model", m.model),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return llm.Completion{}, fmt.Errorf("complete: %w", err)
	}
	m.record(c.Usage)
	return c, nil
}

// Chat delegates to the inner model and records usage.
func (m *InstrumentedModel) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (llm.Completion, error) {
	start := time.Now()
	c, err := m.inner.Chat(ctx, messages, tools)
	if err != nil {
		m.logger.Error("Chat request failed",
			zap.String("model", m.model),
			zap.Int("messages", len(messages)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return llm.Completion{}, fmt.Errorf("chat: %w", err)
	}
	m.record(c.Usage)
	return c, nil
}

func (m *InstrumentedModel) record(u llm.Usage) {
	if m.recorder == nil {
		return
	}
	m.recorder.Record(domusage.Counters{
		Requests:         1,
		PromptTokens:     int64(u.PromptTokens),
		CompletionTokens: int64(u.CompletionTokens),
		TotalTokens:      int64(u.TotalTokens),
	})
}
