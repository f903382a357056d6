package classifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"reliefboard/pkg/circuitbreaker"
	"reliefboard/pkg/config"
	"reliefboard/pkg/metrics"
)

// NewFromConfig builds a gateway for cfg. rdb may be nil to disable the
// verdict cache. Without an API key the gateway only uses keywords.
func NewFromConfig(ctx context.Context, cfg config.ClassifierConfig, rdb *redis.Client, logger *zap.Logger) (*Gateway, error) {
	opts := []Option{
		WithTimeout(cfg.Timeout),
		WithLogger(logger),
	}
	if len(cfg.FallbackKeywords) > 0 {
		opts = append(opts, WithFallback(NewKeywordClassifier(cfg.FallbackKeywords)))
	}

	if cfg.APIKey == "" {
		logger.Warn("No model API key configured, urgency is decided by keywords only")
		return NewGateway(nil, opts...), nil
	}

	httpClient := &http.Client{}
	var gen Generator
	switch strings.ToLower(cfg.Backend) {
	case "", "rest":
		gen = NewRESTGenerator(cfg.Endpoint, cfg.Model, cfg.APIKey, httpClient)
	case "genai":
		g, err := NewGenAIGenerator(ctx, cfg.Endpoint, cfg.Model, cfg.APIKey, httpClient)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}

	backend := gen.Name()
	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
	}, circuitbreaker.WithStateChange(func(from, to circuitbreaker.State) {
		metrics.SetBreakerState(backend, int(to))
		logger.Warn("Classifier circuit breaker changed state",
			zap.String("backend", backend),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}))
	metrics.SetBreakerState(backend, int(circuitbreaker.StateClosed))
	opts = append(opts, WithBreaker(breaker))

	if rdb != nil && cfg.CacheTTL > 0 {
		opts = append(opts, WithCache(NewRedisVerdictCache(rdb, cfg.CacheTTL, logger)))
	}

	logger.Info("Classifier ready",
		zap.String("backend", backend),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return NewGateway(gen, opts...), nil
}
