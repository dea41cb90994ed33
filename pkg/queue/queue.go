// Package queue runs background jobs through a pluggable driver (memory or
// Redis). Jobs are JSON encoded with their Go type name so any process
// that registered the same job type can run them.
//
//	q := queue.NewManager(queue.NewMemoryDriver(), queue.WithFailedJobStore(db))
//	q.Register(func() queue.Job { return &jobs.LowStockAlert{} })
//	go q.Work(ctx, 2)
//	_ = q.Dispatch(ctx, &jobs.LowStockAlert{ProductID: 7})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/metrics"
	"github.com/adegaexpress/adega/pkg/workerpool"
	"gorm.io/gorm"
)

type Job interface {
	Handle(ctx context.Context) error
}

// Driver stores encoded jobs. Pop returns (nil, nil) when nothing arrived
// before its own timeout.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver can hold a job until its run time.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

type FailedJob struct {
	Type     string
	Payload  []byte
	Err      error
	FailedAt time.Time
	Attempts int
}

type Manager struct {
	driver   Driver
	db       *gorm.DB
	maxRetry int
	backoff  func(attempt int) time.Duration

	mu       sync.RWMutex
	registry map[string]func() Job
	failed   []FailedJob
}

type Option func(*Manager)

func WithMaxRetry(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRetry = n
		}
	}
}

// WithBackoff sets the pause before retry number attempt+1.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(m *Manager) { m.backoff = fn }
}

// WithFailedJobStore persists exhausted jobs into the failed_jobs table.
func WithFailedJobStore(db *gorm.DB) Option {
	return func(m *Manager) { m.db = db }
}

func NewManager(driver Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:   driver,
		maxRetry: 3,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		registry: make(map[string]func() Job),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TypeName is the registry key of job.
func TypeName(job Job) string {
	return fmt.Sprintf("%T", job)
}

// Register makes a job type runnable by workers of this manager.
func (m *Manager) Register(factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[TypeName(factory())] = factory
}

// envelope is what drivers store. Attempts counts failed runs so far.
type envelope struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts,omitempty"`
}

func encode(job Job) ([]byte, error) {
	typeName := TypeName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", typeName, err)
	}
	return json.Marshal(envelope{Type: typeName, Payload: payload})
}

func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	return m.driver.Push(ctx, raw)
}

// DispatchAfter queues job to run once delay has passed.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	return m.pushAfter(ctx, raw, delay)
}

// pushAfter uses the driver's delayed storage when it has one and a timer
// otherwise.
func (m *Manager) pushAfter(ctx context.Context, raw []byte, delay time.Duration) error {
	if d, ok := m.driver.(DelayedDriver); ok {
		return d.PushDelayed(ctx, raw, delay)
	}
	time.AfterFunc(delay, func() {
		if err := m.driver.Push(context.Background(), raw); err != nil {
			logger.Error("queue: delayed dispatch failed", "error", err)
		}
	})
	return nil
}

// Work pops jobs and runs them on a pool of n workers until ctx ends.
func (m *Manager) Work(ctx context.Context, n int) {
	pool := workerpool.New(n)
	defer pool.Shutdown()

	logger.Info("queue: workers started", "count", n)

	for {
		raw, err := m.driver.Pop(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			continue
		}

		if err := pool.SubmitContext(ctx, func() { m.process(ctx, raw) }); err != nil {
			// Put it back so another worker picks it up after restart.
			_ = m.driver.Push(context.Background(), raw)
			return
		}
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()

	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.run(ctx, job, env)
}

// run handles one attempt. A failure is queued again after the backoff, so
// waiting retries hold no worker, until maxRetry attempts have been made.
func (m *Manager) run(ctx context.Context, job Job, env envelope) {
	start := time.Now()
	attempt := env.Attempts + 1

	err := job.Handle(ctx)
	if err == nil {
		metrics.RecordQueueJob(env.Type, "success", start)
		logger.Debug("queue: job processed", "type", env.Type, "attempt", attempt)
		return
	}
	logger.Warn("queue: job failed", "type", env.Type, "attempt", attempt, "error", err)

	if attempt < m.maxRetry {
		retryErr := m.retryLater(env, attempt)
		if retryErr == nil {
			metrics.RecordQueueJob(env.Type, "retried", start)
			return
		}
		logger.Error("queue: retry not scheduled", "type", env.Type, "error", retryErr)
	}

	metrics.RecordQueueJob(env.Type, "failed", start)
	m.persistFailed(env, err, attempt)
	logger.Error("queue: job exhausted retries", "type", env.Type, "attempts", attempt, "error", err)
}

func (m *Manager) retryLater(env envelope, attempt int) error {
	env.Attempts = attempt
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	// Outlives the worker ctx so shutdown does not drop the retry.
	return m.pushAfter(context.Background(), raw, m.backoff(attempt))
}

// FailedJobs returns the jobs this process gave up on.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}
