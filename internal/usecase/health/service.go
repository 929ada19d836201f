package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the model is unreachable and no query can be answered.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Check names reported in Report.Checks.
const (
	CheckLLM        = "llm"
	CheckUsageStore = "usage_store"
)

// Service coordinates health checks.
type Service struct {
	model ModelChecker
	store StorePinger
}

// New creates a Service. store is nil when usage counters are kept in memory.
func New(model ModelChecker, store StorePinger) *Service {
	return &Service{model: model, store: store}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.model.HealthCheck(ctx); err != nil {
		checks[CheckLLM] = CheckError
	} else {
		checks[CheckLLM] = CheckOK
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks[CheckUsageStore] = CheckError
		} else {
			checks[CheckUsageStore] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[CheckLLM] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
