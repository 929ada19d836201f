// Package routing decides whether a query needs live web information.
package routing

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/domain/llm"
	"github.com/kailas-cloud/hybridchat/internal/domain/route"
	"github.com/kailas-cloud/hybridchat/internal/metrics"
)

const classifyPrompt = "Is this query about current events or real-time information? Answer with just 'web' or 'ai': "

// completer is the consumer interface for the language model (ISP).
type completer interface {
	Complete(ctx context.Context, prompt string) (llm.Completion, error)
}

// Service classifies queries into web or ai routes.
type Service struct {
	model  completer
	logger *zap.Logger
}

// New creates a routing Service.
func New(model completer, logger *zap.Logger) *Service {
	return &Service{model: model, logger: logger}
}

// Classify asks the model whether the query is about current events.
// The answer means web when it contains "web" in any case. A failed
// model call never propagates: the decision defaults to ai.
func (s *Service) Classify(ctx context.Context, query string) route.Decision {
	c, err := s.model.Complete(ctx, classifyPrompt+query)
	if err != nil {
		s.logger.Warn("Query classification failed, defaulting to ai", zap.Error(err))
		d := route.Defaulted(err)
		observe(d)
		return d
	}

	raw := strings.ToLower(strings.TrimSpace(c.Content))
	r := route.AI
	if strings.Contains(raw, string(route.Web)) {
		r = route.Web
	}

	d := route.Classified(r, c.Content)
	s.logger.Debug("Query classified",
		zap.String("route", string(r)),
		zap.String("raw", raw),
	)
	observe(d)
	return d
}

func observe(d route.Decision) {
	metrics.RouteDecisionsTotal.WithLabelValues(string(d.Route), strconv.FormatBool(d.Defaulted)).Inc()
}
