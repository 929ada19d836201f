package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	domusage "github.com/kailas-cloud/hybridchat/internal/domain/usage"
)

// Tracker keeps in-memory daily and monthly usage counters with optional persistence.
// Record updates memory first, then writes behind to the store.
// Counters are observability only and never gate requests.
type Tracker struct {
	mu             sync.Mutex
	daily          domusage.Counters
	monthly        domusage.Counters
	model          string
	keyPrefix      string
	lastDayReset   time.Time
	lastMonthReset time.Time
	store          CounterStore
	logger         *zap.Logger
	now            func() time.Time
}

// NewTracker creates a tracker for one model.
func NewTracker(keyPrefix, model string, logger *zap.Logger) *Tracker {
	t := &Tracker{
		model:     model,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	now := t.now()
	t.lastDayReset = truncateToDay(now)
	t.lastMonthReset = truncateToMonth(now)
	return t
}

// WithStore attaches a persistence store and loads current counters.
func (t *Tracker) WithStore(ctx context.Context, store CounterStore) *Tracker {
	t.store = store
	t.loadFromStore(ctx)
	return t
}

func (t *Tracker) loadFromStore(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	if c, err := t.store.Load(ctx, t.dailyKey(now)); err == nil {
		t.daily = c
	} else {
		t.logger.Warn("Failed to load daily usage from store", zap.Error(err))
	}

	if c, err := t.store.Load(ctx, t.monthlyKey(now)); err == nil {
		t.monthly = c
	} else {
		t.logger.Warn("Failed to load monthly usage from store", zap.Error(err))
	}

	t.logger.Info("Usage loaded from store",
		zap.String("model", t.model),
		zap.Int64("daily_tokens", t.daily.TotalTokens),
		zap.Int64("monthly_tokens", t.monthly.TotalTokens),
	)
}

func (t *Tracker) dailyKey(now time.Time) string {
	return fmt.Sprintf("%susage:%s:daily:%s", t.keyPrefix, t.model, now.Format("2006-01-02"))
}

func (t *Tracker) monthlyKey(now time.Time) string {
	return fmt.Sprintf("%susage:%s:monthly:%s", t.keyPrefix, t.model, now.Format("2006-01"))
}

// Record registers one model call.
func (t *Tracker) Record(c domusage.Counters) {
	t.mu.Lock()
	t.resetIfNeeded()
	t.daily = t.daily.Add(c)
	t.monthly = t.monthly.Add(c)
	store := t.store
	now := t.now()
	dailyKey := t.dailyKey(now)
	monthlyKey := t.monthlyKey(now)
	t.mu.Unlock()

	if store == nil {
		return
	}

	// Write-behind with a background context, independent of the caller.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.Add(ctx, dailyKey, c); err != nil {
		t.logger.Warn("Failed to persist daily usage", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := store.Add(ctx, monthlyKey, c); err != nil {
		t.logger.Warn("Failed to persist monthly usage", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// Model returns the model the counters belong to.
func (t *Tracker) Model() string { return t.model }

// Daily returns today's counters.
func (t *Tracker) Daily() domusage.Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return t.daily
}

// Monthly returns this month's counters.
func (t *Tracker) Monthly() domusage.Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return t.monthly
}

// resetIfNeeded zeroes counters when the day or month rolls over.
func (t *Tracker) resetIfNeeded() {
	now := t.now()
	today := truncateToDay(now)
	thisMonth := truncateToMonth(now)

	if today.After(t.lastDayReset) {
		t.daily = domusage.Counters{}
		t.lastDayReset = today
	}
	if thisMonth.After(t.lastMonthReset) {
		t.monthly = domusage.Counters{}
		t.lastMonthReset = thisMonth
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
