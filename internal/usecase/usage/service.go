package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/hybridchat/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	r   Reader
	now func() time.Time
}

// New creates a Service.
func New(r Reader) *Service {
	return &Service{r: r, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now()

	switch period {
	case domusage.PeriodDay:
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)
		return domusage.NewReport(period, dayStart.UnixMilli(), dayEnd.UnixMilli(), s.r.Model(), s.r.Daily())
	default:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, 0)
		return domusage.NewReport(domusage.PeriodMonth, monthStart.UnixMilli(), monthEnd.UnixMilli(), s.r.Model(), s.r.Monthly())
	}
}
