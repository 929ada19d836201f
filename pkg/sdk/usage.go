package hybridchat

import (
	"context"
	"net/http"
	"net/url"
	"time"

	apichi "github.com/kailas-cloud/hybridchat/internal/transport/chi"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// UsageReport contains language model usage for a time period.
type UsageReport struct {
	Period      UsagePeriod
	PeriodStart time.Time
	PeriodEnd   time.Time
	Model       string
	Metrics     UsageMetrics
}

// UsageMetrics tracks model resource consumption.
type UsageMetrics struct {
	Requests         int64
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Usage returns a usage report for the given period. An empty period means month.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) (rep UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opUsage, start, err) }()

	var q url.Values
	if period != "" {
		q = url.Values{"period": {string(period)}}
	}

	var out apichi.UsageResponse
	if _, _, err = c.do(ctx, opUsage, http.MethodGet, "/usage", q, nil, &out); err != nil {
		return UsageReport{}, err
	}
	return UsageReport{
		Period:      UsagePeriod(out.Period),
		PeriodStart: out.PeriodStartAt.UTC(),
		PeriodEnd:   out.PeriodEndAt.UTC(),
		Model:       out.Model,
		Metrics: UsageMetrics{
			Requests:         out.Usage.Requests,
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		},
	}, nil
}
