// Package chat answers a single query by routing it to the web agent or the model.
package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/domain"
	domchat "github.com/kailas-cloud/hybridchat/internal/domain/chat"
	"github.com/kailas-cloud/hybridchat/internal/domain/route"
	"github.com/kailas-cloud/hybridchat/internal/logger"
	"github.com/kailas-cloud/hybridchat/internal/metrics"
)

// Service orchestrates classification, the web agent and the direct answer.
type Service struct {
	classifier Classifier
	agent      Agent
	model      Completer
	logger     *zap.Logger
}

// New creates a chat Service.
func New(classifier Classifier, agent Agent, model Completer, logger *zap.Logger) *Service {
	return &Service{
		classifier: classifier,
		agent:      agent,
		model:      model,
		logger:     logger,
	}
}

// Ask answers query. Web-routed queries go through the agent; any agent
// failure is answered directly instead. A run that hits the iteration cap is
// not a failure and its stop message is the answer. An answer without text is
// returned together with domain.ErrEmptyResponse. Any other error means the
// direct answer itself failed.
func (s *Service) Ask(ctx context.Context, query string) (domchat.Answer, error) {
	ans, err := s.answer(ctx, query)
	if err != nil {
		return domchat.Answer{}, err
	}
	if ans.Empty() {
		return ans, fmt.Errorf("%s path: %w", ans.Path, domain.ErrEmptyResponse)
	}
	return ans, nil
}

func (s *Service) answer(ctx context.Context, query string) (domchat.Answer, error) {
	log := logger.FromContext(ctx, s.logger)

	decision := s.classifier.Classify(ctx, query)

	if decision.Route == route.Web {
		res, err := s.agent.Run(ctx, query)
		if err == nil {
			if res.Stopped {
				log.Info("Web agent stopped at iteration cap", zap.Int("iterations", res.Iterations))
			}
			return domchat.Answer{
				Text:       res.Output,
				Decision:   decision,
				Path:       domchat.PathAgent,
				Iterations: res.Iterations,
			}, nil
		}

		metrics.FallbacksTotal.Inc()
		log.Warn("Web agent failed, falling back to direct answer",
			zap.Int("iterations", res.Iterations),
			zap.Error(err),
		)

		text, derr := s.direct(ctx, query)
		if derr != nil {
			return domchat.Answer{}, derr
		}
		return domchat.Answer{
			Text:        text,
			Decision:    decision,
			Path:        domchat.PathFallback,
			Iterations:  res.Iterations,
			FallbackErr: err,
		}, nil
	}

	text, err := s.direct(ctx, query)
	if err != nil {
		return domchat.Answer{}, err
	}
	return domchat.Answer{
		Text:     text,
		Decision: decision,
		Path:     domchat.PathDirect,
	}, nil
}

func (s *Service) direct(ctx context.Context, query string) (string, error) {
	c, err := s.model.Complete(ctx, query)
	if err != nil {
		return "", fmt.Errorf("direct answer: %w", err)
	}
	return c.Content, nil
}
