package hybridchat

import (
	"context"
	"net/http"
	"time"

	apichi "github.com/kailas-cloud/hybridchat/internal/transport/chi"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// OK reports whether every check passed.
func (h HealthStatus) OK() bool { return h.Status == "ok" }

// Health fetches the service health. A 503 reply is a report, not an error.
func (c *Client) Health(ctx context.Context) (hs HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opHealth, start, err) }()

	var out apichi.HealthResponse
	if _, _, err = c.do(ctx, opHealth, http.MethodGet, "/health", nil, nil, &out,
		http.StatusServiceUnavailable); err != nil {
		return HealthStatus{}, err
	}
	return HealthStatus{Status: out.Status, Checks: out.Checks}, nil
}
