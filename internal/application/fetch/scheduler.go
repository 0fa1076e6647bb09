package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// SchedulerConfig bounds dispatch to one remote service
type SchedulerConfig struct {
	MaxConcurrent int
	MinSpacing    time.Duration
}

// Scheduler allows at most MaxConcurrent calls in flight and spaces
// dispatches at least MinSpacing apart
type Scheduler struct {
	name    string
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	mu       sync.Mutex
	inFlight int
}

// NewScheduler creates a scheduler for the named service
func NewScheduler(name string, cfg SchedulerConfig) *Scheduler {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	limit := rate.Inf
	if cfg.MinSpacing > 0 {
		limit = rate.Every(cfg.MinSpacing)
	}

	return &Scheduler{
		name:    name,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Name returns the service this scheduler guards
func (s *Scheduler) Name() string {
	return s.name
}

// InFlight returns the number of calls currently holding a slot
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Do waits for a concurrency slot and the spacing window, then runs fn
func (s *Scheduler) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	return fn(ctx)
}

// Registry hands out one scheduler per remote service so every caller of a
// service shares its limits
type Registry struct {
	cfg        SchedulerConfig
	mu         sync.Mutex
	schedulers map[string]*Scheduler
}

// NewRegistry creates a registry whose schedulers all use cfg
func NewRegistry(cfg SchedulerConfig) *Registry {
	return &Registry{
		cfg:        cfg,
		schedulers: make(map[string]*Scheduler),
	}
}

// For returns the scheduler for a service, creating it on first use
func (r *Registry) For(service string) *Scheduler {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.schedulers[service]; ok {
		return s
	}
	s := NewScheduler(service, r.cfg)
	r.schedulers[service] = s
	return s
}

// Services lists the services seen so far
func (r *Registry) Services() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.schedulers))
	for name := range r.schedulers {
		names = append(names, name)
	}
	return names
}
