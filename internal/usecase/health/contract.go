package health

import "context"

// ModelChecker checks language model provider availability.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorePinger checks usage store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}
