package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/domain"
	domusage "github.com/kailas-cloud/hybridchat/internal/domain/usage"
	"github.com/kailas-cloud/hybridchat/internal/logger"
	healthuc "github.com/kailas-cloud/hybridchat/internal/usecase/health"
)

// Client-facing messages for the chat endpoint.
const (
	msgMissingQuery  = "No query provided"
	msgEmptyResponse = "No response generated"
)

// Diagnostic response headers on POST /chat.
const (
	HeaderRoute      = "X-Route"
	HeaderAnswerPath = "X-Answer-Path"
)

const maxBodyBytes = 1 << 20

// Server serves the hybridchat HTTP API.
type Server struct {
	chat   ChatService
	usage  UsageService
	health HealthService
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(chat ChatService, usage UsageService, health HealthService, logger *zap.Logger) *Server {
	return &Server{
		chat:   chat,
		usage:  usage,
		health: health,
		logger: logger,
	}
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Post("/chat", s.Chat)
	r.Get("/health", s.HealthCheck)
	r.Get("/usage", s.GetUsage)
	r.Get("/metrics", s.Metrics)
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.logger)

	query, err := decodeQuery(w, r)
	if err != nil {
		log.Debug("Rejected chat request", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgMissingQuery)
		return
	}
	log.Debug("Chat request received", zap.Int("query_len", len(query)))

	answer, err := s.chat.Ask(r.Context(), query)
	if answer.Path != "" {
		w.Header().Set(HeaderRoute, string(answer.Route()))
		w.Header().Set(HeaderAnswerPath, string(answer.Path))
	}

	switch {
	case errors.Is(err, domain.ErrEmptyResponse):
		log.Error("Chat produced no response",
			zap.String("route", string(answer.Route())),
			zap.String("path", string(answer.Path)),
		)
		writeError(w, http.StatusInternalServerError, msgEmptyResponse)
		return
	case err != nil:
		log.Error("Chat request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Debug("Chat response computed",
		zap.String("route", string(answer.Route())),
		zap.Bool("route_defaulted", answer.Decision.Defaulted),
		zap.String("path", string(answer.Path)),
		zap.Int("iterations", answer.Iterations),
		zap.Int("response_len", len(answer.Text)),
	)
	writeJSON(w, http.StatusOK, ChatResponse{Response: answer.Text})
}

// decodeQuery reads the JSON body and returns its string query field, or
// domain.ErrMissingQuery when the field is absent, null or not a string.
// An empty string is a query.
func decodeQuery(w http.ResponseWriter, r *http.Request) (string, error) {
	var req struct {
		Query *string `json:"query"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return "", errors.Join(domain.ErrMissingQuery, err)
	}
	if req.Query == nil {
		return "", domain.ErrMissingQuery
	}
	return *req.Query, nil
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format for parameter period: "+err.Error())
		return
	}

	var value string
	if raw != nil {
		value = *raw
	}
	period, err := domusage.ParsePeriod(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	c := report.Counters()

	writeJSON(w, http.StatusOK, UsageResponse{
		Period:        string(report.Period()),
		PeriodStartAt: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEndAt:   time.UnixMilli(report.PeriodEnd()).UTC(),
		Model:         report.Model(),
		Usage: UsageMetrics{
			Requests:         c.Requests,
			PromptTokens:     c.PromptTokens,
			CompletionTokens: c.CompletionTokens,
			TotalTokens:      c.TotalTokens,
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
