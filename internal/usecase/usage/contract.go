package usage

import (
	"context"

	domusage "github.com/kailas-cloud/hybridchat/internal/domain/usage"
)

// CounterStore persists per-period usage counters.
type CounterStore interface {
	Add(ctx context.Context, key string, c domusage.Counters) error
	Load(ctx context.Context, key string) (domusage.Counters, error)
}

// Recorder accepts usage after each model call.
type Recorder interface {
	Record(c domusage.Counters)
}

// Reader provides read-only access to the current period counters.
type Reader interface {
	Model() string
	Daily() domusage.Counters
	Monthly() domusage.Counters
}
