package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/config"
	dbRedis "github.com/kailas-cloud/hybridchat/internal/db/redis"
	logpkg "github.com/kailas-cloud/hybridchat/internal/logger"
	"github.com/kailas-cloud/hybridchat/internal/metrics"
	usagerepo "github.com/kailas-cloud/hybridchat/internal/repository/usage"
	chiTransport "github.com/kailas-cloud/hybridchat/internal/transport/chi"
	"github.com/kailas-cloud/hybridchat/internal/transport/duckduckgo"
	openaiLLM "github.com/kailas-cloud/hybridchat/internal/transport/openai"
	"github.com/kailas-cloud/hybridchat/internal/usecase/agent"
	chatuc "github.com/kailas-cloud/hybridchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/hybridchat/internal/usecase/health"
	"github.com/kailas-cloud/hybridchat/internal/usecase/routing"
	"github.com/kailas-cloud/hybridchat/internal/usecase/toolbox"
	usageuc "github.com/kailas-cloud/hybridchat/internal/usecase/usage"
	"github.com/kailas-cloud/hybridchat/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting hybridchat API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("model", cfg.LLM.Model),
		zap.Int("agent_max_iterations", cfg.Agent.MaxIterations),
		zap.Bool("usage_store", cfg.Usage.Store.Enabled()),
	)

	// Register model and search metrics explicitly (no init())
	metrics.RegisterLLMMetrics()

	ctx := context.Background()

	// Usage tracker: in memory, optionally persisted to Redis/Valkey.
	tracker := usageuc.NewTracker(cfg.Usage.Store.KeyPrefix, cfg.LLM.Model, logger)

	// Pass nil interface (not typed nil pointer!) when no store is configured.
	var storePinger healthuc.StorePinger
	if cfg.Usage.Store.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Usage.Store.Addrs,
			Username:   cfg.Usage.Store.Username,
			Password:   cfg.Usage.Store.Password,
			DB:         cfg.Usage.Store.DB,
			ClientName: "hybridchat",
		})
		if err != nil {
			logger.Fatal("Failed to create usage store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Usage.Store.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Usage store not ready", zap.Error(err))
		}
		logger.Info("Connected to usage store", zap.Strings("addrs", cfg.Usage.Store.Addrs))

		tracker.WithStore(ctx, usagerepo.New(store,
			time.Duration(cfg.Usage.Store.DailyTTLHours)*time.Hour,
			time.Duration(cfg.Usage.Store.MonthlyTTLDays)*24*time.Hour,
		))
		storePinger = store
	}

	// Model chain: OpenAI (transport metrics) -> Instrumented (usage accounting)
	base := openaiLLM.NewClient(&openaiLLM.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.TemperatureValue(),
		Provider:    cfg.LLM.Provider,
		Logger:      logger,
	})
	model := usageuc.NewInstrumentedModel(base, cfg.LLM.Model, tracker, logger)

	userAgent := cfg.Search.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	searcher := duckduckgo.NewClient(duckduckgo.Config{
		BaseURL:    cfg.Search.BaseURL,
		MaxResults: cfg.Search.MaxResults,
		Region:     cfg.Search.Region,
		UserAgent:  userAgent,
		Logger:     logger,
	})

	// Tools are built once and shared read-only across requests.
	tools := toolbox.Default(searcher, model)
	executor := agent.NewExecutor(model, tools, agent.Config{
		MaxIterations: cfg.Agent.MaxIterations,
		SystemPrompt:  cfg.Agent.SystemPrompt,
	}, logger)

	chatSvc := chatuc.New(routing.New(model, logger), executor, model, logger)
	usageSvc := usageuc.New(tracker)
	healthSvc := healthuc.New(base, storePinger)

	server := chiTransport.NewServer(chatSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.MaxAgeSec))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{Error: "internal error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line: one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
				zap.String("route", ww.Header().Get(chiTransport.HeaderRoute)),
				zap.String("answer_path", ww.Header().Get(chiTransport.HeaderAnswerPath)),
			)
		})
	}
}
