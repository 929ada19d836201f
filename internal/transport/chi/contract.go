package chi

import (
	"context"

	domchat "github.com/kailas-cloud/hybridchat/internal/domain/chat"
	domusage "github.com/kailas-cloud/hybridchat/internal/domain/usage"
	healthuc "github.com/kailas-cloud/hybridchat/internal/usecase/health"
)

// ChatService answers queries.
type ChatService interface {
	Ask(ctx context.Context, query string) (domchat.Answer, error)
}

// UsageService builds usage reports.
type UsageService interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthService runs component health checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
