package usage

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/domain"
	"github.com/kailas-cloud/hybridchat/internal/domain/llm"
	domusage "github.com/kailas-cloud/hybridchat/internal/domain/usage"
)

type mockModel struct {
	completion llm.Completion
	err        error
}

func (m *mockModel) Complete(_ context.Context, _ string) (llm.Completion, error) {
	return m.completion, m.err
}

func (m *mockModel) Chat(_ context.Context, _ []llm.Message, _ []llm.ToolSpec) (llm.Completion, error) {
	return m.completion, m.err
}

type recordingRecorder struct {
	recorded []domusage.Counters
}

func (r *recordingRecorder) Record(c domusage.Counters) { r.recorded = append(r.recorded, c) }

func TestInstrumentedModel_RecordsUsage(t *testing.T) {
	inner := &mockModel{completion: llm.Completion{
		Content: "hi",
		Usage:   llm.Usage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10},
	}}
	rec := &recordingRecorder{}
	m := NewInstrumentedModel(inner, "gpt-test", rec, zap.NewNop())

	if _, err := m.Complete(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Chat(context.Background(), []llm.Message{llm.User("hello")}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.recorded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rec.recorded))
	}
	want := domusage.Counters{Requests: 1, PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10}
	if rec.recorded[0] != want {
		t.Errorf("recorded = %+v, want %+v", rec.recorded[0], want)
	}
}

func TestInstrumentedModel_ErrorNotRecorded(t *testing.T) {
	inner := &mockModel{err: domain.ErrModelInvocation}
	rec := &recordingRecorder{}
	m := NewInstrumentedModel(inner, "gpt-test", rec, zap.NewNop())

	_, err := m.Complete(context.Background(), "hello")
	if !errors.Is(err, domain.ErrModelInvocation) {
		t.Fatalf("expected ErrModelInvocation, got %v", err)
	}
	_, err = m.Chat(context.Background(), nil, nil)
	if !errors.Is(err, domain.ErrModelInvocation) {
		t.Fatalf("expected ErrModelInvocation, got %v", err)
	}
	if len(rec.recorded) != 0 {
		t.Errorf("failed calls must not be recorded, got %d", len(rec.recorded))
	}
}

func TestInstrumentedModel_NilRecorder(t *testing.T) {
	inner := &mockModel{completion: llm.Completion{Content: "ok"}}
	m := NewInstrumentedModel(inner, "gpt-test", nil, zap.NewNop())

	c, err := m.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Content != "ok" {
		t.Errorf("Content = %q", c.Content)
	}
}
