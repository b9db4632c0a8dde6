// Package scheduler implements the background milestone loop. A single
// long-lived goroutine wakes on a short interval, rate-limits its own
// condition checks, and runs registered jobs independently of inbound
// traffic.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Clock abstracts wall-clock access so milestone timing is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job is one unit of recurring background work. Run is invoked at most once
// per check interval; errors are logged and never stop the loop.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job once.
	Run(ctx context.Context) error
}

// ══════════════════════════════════════════════════════════════════════════════
// LOOP
// ══════════════════════════════════════════════════════════════════════════════

// Config contains loop timing settings.
type Config struct {
	// WakeInterval is the sleep between wakeups; the stop signal is
	// observed within one interval.
	WakeInterval time.Duration

	// CheckInterval is the minimum gap between job executions.
	CheckInterval time.Duration

	// Cooldown after a job panic or error burst before the next attempt.
	FailureCooldown time.Duration
}

// DefaultConfig returns the production loop timings.
func DefaultConfig() Config {
	return Config{
		WakeInterval:    10 * time.Second,
		CheckInterval:   60 * time.Second,
		FailureCooldown: 5 * time.Minute,
	}
}

// Loop drives registered jobs on the configured cadence.
type Loop struct {
	config Config
	clock  Clock
	logger *slog.Logger

	mu        sync.Mutex
	jobs      []Job
	lastCheck time.Time
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewLoop creates a Loop. A nil clock means the system clock.
func NewLoop(config Config, clock Clock, logger *slog.Logger) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	if config.WakeInterval <= 0 {
		config.WakeInterval = 10 * time.Second
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = 60 * time.Second
	}

	return &Loop{
		config: config,
		clock:  clock,
		logger: logger,
	}
}

// Register adds a job. Must be called before Start.
func (l *Loop) Register(job Job) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jobs = append(l.jobs, job)
}

// Start launches the loop goroutine. Calling Start on a running loop is a
// no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return
	}
	l.running = true

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})

	go l.run(ctx)

	l.logger.Info("scheduler started",
		slog.Duration("wake_interval", l.config.WakeInterval),
		slog.Duration("check_interval", l.config.CheckInterval),
		slog.Int("jobs", len(l.jobs)),
	)
}

// Stop signals the loop and waits for in-flight work, bounded by the
// context deadline.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()

	select {
	case <-done:
		l.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.config.WakeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick runs the jobs when the check interval has elapsed since the last run.
func (l *Loop) tick(ctx context.Context) {
	now := l.clock.Now()

	l.mu.Lock()
	if now.Sub(l.lastCheck) < l.config.CheckInterval {
		l.mu.Unlock()
		return
	}
	l.lastCheck = now
	jobs := make([]Job, len(l.jobs))
	copy(jobs, l.jobs)
	l.mu.Unlock()

	for _, job := range jobs {
		l.runJob(ctx, job)
	}
}

// runJob executes one job, absorbing errors and panics so a faulty job
// never kills the loop.
func (l *Loop) runJob(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("scheduler job panicked",
				slog.String("job", job.Name()),
				slog.Any("panic", r),
			)
			l.backoff()
		}
	}()

	if err := job.Run(ctx); err != nil {
		l.logger.Error("scheduler job failed",
			slog.String("job", job.Name()),
			slog.String("error", err.Error()),
		)
	}
}

// backoff pushes the next check out by the failure cooldown.
func (l *Loop) backoff() {
	if l.config.FailureCooldown <= 0 {
		return
	}
	l.mu.Lock()
	l.lastCheck = l.clock.Now().Add(l.config.FailureCooldown - l.config.CheckInterval)
	l.mu.Unlock()
}
