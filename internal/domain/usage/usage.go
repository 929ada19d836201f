package usage

import (
	"fmt"

	"github.com/kailas-cloud/hybridchat/internal/domain"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means month.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodMonth, nil
	case PeriodDay, PeriodMonth:
		return Period(s), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownPeriod, s)
	}
}

// Counters is a snapshot of language model consumption.
type Counters struct {
	Requests         int64
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Add returns the element-wise sum.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Requests:         c.Requests + o.Requests,
		PromptTokens:     c.PromptTokens + o.PromptTokens,
		CompletionTokens: c.CompletionTokens + o.CompletionTokens,
		TotalTokens:      c.TotalTokens + o.TotalTokens,
	}
}

// Report is a language model usage report for a time period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	model       string
	counters    Counters
}

// NewReport creates a usage report.
func NewReport(period Period, start, end int64, model string, c Counters) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		model:       model,
		counters:    c,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Model returns the model the counters belong to.
func (r *Report) Model() string { return r.model }

// Counters returns the consumption counters.
func (r *Report) Counters() Counters { return r.counters }
