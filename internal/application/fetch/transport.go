package fetch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Config is the transport configuration shared by every remote call
type Config struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	MaxConcurrent int
	MinSpacing    time.Duration
}

// DefaultConfig mirrors DefaultRetryPolicy with five concurrent calls 200ms apart
func DefaultConfig() Config {
	policy := DefaultRetryPolicy()
	return Config{
		MaxRetries:    policy.MaxRetries,
		InitialDelay:  policy.InitialDelay,
		MaxDelay:      policy.MaxDelay,
		MaxConcurrent: 5,
		MinSpacing:    200 * time.Millisecond,
	}
}

// Observer receives call and retry notifications, typically for metrics
type Observer interface {
	ObserveCall(service string, duration time.Duration, err error)
	ObserveRetry(service string)
	ObserveExhausted(service string)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(string, time.Duration, error) {}
func (nopObserver) ObserveRetry(string)                      {}
func (nopObserver) ObserveExhausted(string)                  {}

// Option customizes a Transport
type Option func(*Transport)

// WithObserver attaches an observer
func WithObserver(observer Observer) Option {
	return func(t *Transport) {
		if observer != nil {
			t.observer = observer
		}
	}
}

// WithSleep replaces the backoff wait, mainly for tests
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Transport) {
		t.policy.Sleep = sleep
	}
}

// WithRegistry shares an existing scheduler registry
func WithRegistry(registry *Registry) Option {
	return func(t *Transport) {
		if registry != nil {
			t.registry = registry
		}
	}
}

// Transport combines the per-service scheduler with retry and backoff.
// Every attempt takes its own scheduler slot; backoff waits do not hold one.
type Transport struct {
	registry *Registry
	policy   RetryPolicy
	observer Observer
	logger   *zap.Logger
}

// NewTransport creates a transport
func NewTransport(cfg Config, logger *zap.Logger, opts ...Option) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Transport{
		registry: NewRegistry(SchedulerConfig{MaxConcurrent: cfg.MaxConcurrent, MinSpacing: cfg.MinSpacing}),
		policy: RetryPolicy{
			MaxRetries:   cfg.MaxRetries,
			InitialDelay: cfg.InitialDelay,
			MaxDelay:     cfg.MaxDelay,
		},
		observer: nopObserver{},
		logger:   logger.Named("fetch"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Registry exposes the per-service schedulers
func (t *Transport) Registry() *Registry {
	return t.registry
}

// Do runs op against the named service with scheduling and retries
func (t *Transport) Do(ctx context.Context, service string, op func(ctx context.Context) error) error {
	scheduler := t.registry.For(service)

	policy := t.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		t.observer.ObserveRetry(service)
		t.logger.Warn("Retrying remote call",
			zap.String("service", service),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	_, err := Retry(ctx, service, policy, func(ctx context.Context) (struct{}, error) {
		start := time.Now()
		err := scheduler.Do(ctx, op)
		t.observer.ObserveCall(service, time.Since(start), err)
		return struct{}{}, err
	})
	if err != nil {
		var exhausted *ExhaustedError
		if errors.As(err, &exhausted) {
			t.observer.ObserveExhausted(service)
		}
		t.logger.Warn("Remote call failed",
			zap.String("service", service),
			zap.Error(err),
		)
	}
	return err
}
