package classifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"reliefboard/pkg/circuitbreaker"
	"reliefboard/pkg/logger"
	"reliefboard/pkg/metrics"
	"reliefboard/pkg/util"
)

// Verdict sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
	SourceCache    = "cache"
)

// Result describes how a verdict was reached.
type Result struct {
	Urgent  bool
	Source  string
	Failure string // failure kind when Source is fallback
	Raw     string // model reply text, if any
	Err     error
	Latency time.Duration
}

// Gateway asks a language model whether a request is urgent and falls back to
// keyword matching whenever the model cannot give an answer. It never fails.
type Gateway struct {
	generator Generator
	fallback  *KeywordClassifier
	breaker   *circuitbreaker.CircuitBreaker
	cache     VerdictCache
	timeout   time.Duration
	cacheWait time.Duration
	logger    *zap.Logger
}

// DefaultCacheTimeout bounds a single verdict cache read or write.
const DefaultCacheTimeout = 100 * time.Millisecond

type Option func(*Gateway)

// WithBreaker guards model calls with cb. Calls the caller abandoned are not
// counted against the model.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(g *Gateway) { g.breaker = cb }
}

// WithCache serves repeated descriptions from c. Cache access is bounded by
// DefaultCacheTimeout and never by more than the model timeout.
func WithCache(c VerdictCache) Option {
	return func(g *Gateway) { g.cache = c }
}

// WithTimeout bounds a single model call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithFallback replaces the default keyword classifier. nil is ignored.
func WithFallback(k *KeywordClassifier) Option {
	return func(g *Gateway) {
		if k != nil {
			g.fallback = k
		}
	}
}

// WithLogger sets the logger. nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGateway wires a generator with its safety nets. A nil generator means no
// credential was configured and every verdict comes from the fallback.
func NewGateway(gen Generator, opts ...Option) *Gateway {
	g := &Gateway{
		generator: gen,
		fallback:  defaultKeywordClassifier,
		timeout:   DefaultTimeout,
		cacheWait: DefaultCacheTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Classify returns true when the description describes an urgent need.
func (g *Gateway) Classify(ctx context.Context, description string) bool {
	return g.Evaluate(ctx, description).Urgent
}

// Evaluate is Classify with the details of how the verdict was reached.
func (g *Gateway) Evaluate(ctx context.Context, description string) Result {
	log := logger.WithTrace(ctx, g.logger)

	if g.generator == nil {
		return g.fallbackResult(log, description, ErrNotConfigured, "", 0)
	}

	if err := ctx.Err(); err != nil {
		return g.fallbackResult(log, description, err, "", 0)
	}

	if g.cache != nil {
		if urgent, ok := g.cachedVerdict(ctx, description); ok {
			metrics.RecordClassification(SourceCache, urgent)
			return Result{Urgent: urgent, Source: SourceCache}
		}
	}

	start := time.Now()
	text, err := g.call(ctx, description)
	latency := time.Since(start)

	if err != nil {
		return g.fallbackResult(log, description, err, text, latency)
	}

	urgent := ParseVerdict(text)
	metrics.RecordModelCallLatency(g.generator.Name(), "ok", latency)
	metrics.RecordClassification(SourceModel, urgent)
	log.Debug("model verdict",
		zap.Bool("urgent", urgent),
		zap.String("reply", snippet([]byte(text))),
		zap.Duration("took", latency),
	)

	if g.cache != nil {
		g.rememberVerdict(ctx, description, urgent)
	}
	return Result{Urgent: urgent, Source: SourceModel, Raw: text, Latency: latency}
}

func (g *Gateway) call(ctx context.Context, description string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := BuildPrompt(description)
	var text string
	run := func() error {
		var err error
		text, err = g.generator.Generate(callCtx, prompt)
		return err
	}

	var err error
	if g.breaker == nil {
		err = run()
	} else {
		// the parent ctx decides whether a failure was ours or the model's
		err = g.breaker.ExecuteContext(ctx, run)
	}
	return text, err
}

func (g *Gateway) cacheBudget() time.Duration {
	return min(g.cacheWait, g.timeout)
}

// cachedVerdict reads the cache within cacheBudget. A slow cache is a miss.
func (g *Gateway) cachedVerdict(ctx context.Context, description string) (bool, bool) {
	ctx, cancel := context.WithTimeout(ctx, g.cacheBudget())
	defer cancel()

	type hit struct{ urgent, ok bool }
	done := make(chan hit, 1)
	go func() {
		urgent, ok := g.cache.Get(ctx, description)
		done <- hit{urgent, ok}
	}()

	select {
	case h := <-done:
		return h.urgent, h.ok
	case <-ctx.Done():
		return false, false
	}
}

// rememberVerdict stores a model verdict within cacheBudget, even if the
// caller has already gone.
func (g *Gateway) rememberVerdict(ctx context.Context, description string, urgent bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cacheBudget())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.cache.Set(ctx, description, urgent)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (g *Gateway) fallbackResult(log *zap.Logger, description string, cause error, raw string, latency time.Duration) Result {
	kind := util.ClassifyModelError(cause)
	urgent := g.fallback.Classify(description)

	if g.generator != nil && kind != util.FailureBreakerOpen {
		metrics.RecordModelCallLatency(g.generator.Name(), kind, latency)
	}
	metrics.RecordClassificationFailure(kind)
	metrics.RecordClassification(SourceFallback, urgent)

	fields := []zap.Field{
		zap.String("failure", kind),
		zap.Bool("urgent", urgent),
		zap.Error(cause),
	}
	if kind == util.FailureNotConfigured || kind == util.FailureBreakerOpen {
		log.Debug("classifying with keywords", fields...)
	} else {
		log.Warn("model call failed, classifying with keywords", fields...)
	}

	return Result{
		Urgent:  urgent,
		Source:  SourceFallback,
		Failure: kind,
		Raw:     raw,
		Err:     cause,
		Latency: latency,
	}
}
