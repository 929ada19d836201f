package chi

import "time"

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the POST /chat success body.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// UsageMetrics holds the counters of a usage report.
type UsageMetrics struct {
	Requests         int64 `json:"requests"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// UsageResponse is the GET /usage body.
type UsageResponse struct {
	Period        string       `json:"period"`
	PeriodStartAt time.Time    `json:"period_start_at"`
	PeriodEndAt   time.Time    `json:"period_end_at"`
	Model         string       `json:"model"`
	Usage         UsageMetrics `json:"usage"`
}
