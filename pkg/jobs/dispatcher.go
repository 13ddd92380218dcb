package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task represents a detached unit of work triggered by a committed mutation.
type Task struct {
	ID       string
	Kind     string
	Payload  interface{}
	Enqueued time.Time
}

// Handler processes a task. A returned error is logged and swallowed; tasks
// are attempted exactly once.
type Handler func(context.Context, Task) error

// DispatcherConfig configures worker pool behaviour.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// Dispatcher is a fire-and-forget in-memory task runner backed by goroutines.
// It carries the best-effort side effects (advisory generation, guardian
// notification) so their failures never reach the triggering request.
type Dispatcher struct {
	name    string
	handler Handler

	workers    int
	bufferSize int
	logger     *zap.Logger

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewDispatcher builds a dispatcher with the provided handler.
func NewDispatcher(name string, handler Handler, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 8
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Dispatcher{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		logger:     cfg.Logger,
		tasks:      make(chan Task, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.started = true
	d.logger.Sugar().Infow("dispatcher started", "dispatcher", d.name, "workers", d.workers)
}

// Stop cancels workers and waits for them to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
	d.logger.Sugar().Infow("dispatcher stopped", "dispatcher", d.name)
}

// Dispatch hands a task to the pool without blocking the caller. A full
// buffer drops the task; the triggering mutation has already committed.
func (d *Dispatcher) Dispatch(task Task) error {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()

	if !started {
		return fmt.Errorf("dispatcher %s not started", d.name)
	}
	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}

	select {
	case d.tasks <- task:
		return nil
	default:
		d.logger.Sugar().Warnw("task dropped, buffer full", "dispatcher", d.name, "task_id", task.ID, "kind", task.Kind)
		return fmt.Errorf("dispatcher %s buffer full", d.name)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case task := <-d.tasks:
			if err := d.handler(d.ctx, task); err != nil {
				d.logger.Sugar().Warnw("task failed", "dispatcher", d.name, "task_id", task.ID, "kind", task.Kind, "error", err)
			}
		}
	}
}
