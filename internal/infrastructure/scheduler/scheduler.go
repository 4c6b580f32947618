package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/infrastructure/telemetry"
)

// DefaultTaskTimeout bounds a single task run
const DefaultTaskTimeout = 10 * time.Minute

// Task outcomes reported to a TaskObserver
const (
	TaskSucceeded = "success"
	TaskFailed    = "failed"
	TaskSkipped   = "skipped"
)

// Task is a unit of periodic work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// TaskObserver receives one call per tick of a task
type TaskObserver interface {
	ObserveTask(task, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveTask(string, string, time.Duration) {}

type entry struct {
	task     Task
	interval time.Duration
	running  atomic.Bool
}

// Scheduler runs registered tasks on fixed intervals. A task never overlaps
// itself: a tick that arrives while the previous run is still going is
// skipped.
type Scheduler struct {
	logger   *zap.Logger
	timeout  time.Duration
	observer TaskObserver

	mu      sync.Mutex
	entries []*entry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithTaskTimeout sets the per-run timeout. Zero keeps the default.
func WithTaskTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithObserver sets the task metrics observer
func WithObserver(o TaskObserver) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

// New creates a scheduler without tasks
func New(logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		logger:   logger,
		timeout:  DefaultTaskTimeout,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a task. Tasks must be registered before Start.
func (s *Scheduler) Register(task Task, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, task.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSchedulerRunning
	}
	if slices.ContainsFunc(s.entries, func(e *entry) bool { return e.task.Name() == task.Name() }) {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name())
	}
	s.entries = append(s.entries, &entry{task: task, interval: interval})
	return nil
}

// Tasks returns the registered task names
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.task.Name()
	}
	return names
}

// Start launches one ticker loop per task. The first run happens one
// interval after Start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, e := range s.entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
		s.logger.Info("Task scheduled",
			zap.String("task", e.task.Name()),
			zap.Duration("interval", e.interval),
		)
	}
	return nil
}

// Stop cancels running tasks and waits for them to return or for ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.cancel == nil {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.cancel = nil
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow runs the named task once, outside of its ticker
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.entries, func(e *entry) bool { return e.task.Name() == name })
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	e := s.entries[idx]
	s.mu.Unlock()

	if !e.running.CompareAndSwap(false, true) {
		s.observer.ObserveTask(name, TaskSkipped, 0)
		return fmt.Errorf("%w: %s", ErrTaskRunning, name)
	}
	defer e.running.Store(false)
	return s.run(ctx, e)
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, e)
		}
	}
}

// tick starts a run unless the previous one is still going
func (s *Scheduler) tick(ctx context.Context, e *entry) {
	if !e.running.CompareAndSwap(false, true) {
		s.logger.Info("Task still running, tick skipped", zap.String("task", e.task.Name()))
		s.observer.ObserveTask(e.task.Name(), TaskSkipped, 0)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer e.running.Store(false)
		_ = s.run(ctx, e)
	}()
}

func (s *Scheduler) run(ctx context.Context, e *entry) (err error) {
	name := e.task.Name()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "scheduler."+name, telemetry.AttrTask.String(name))
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Task panicked",
				zap.String("task", name),
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
			err = fmt.Errorf("task %s panicked: %v", name, r)
		}

		elapsed := time.Since(start)
		telemetry.RecordError(span, err)
		switch {
		case err == nil:
			s.observer.ObserveTask(name, TaskSucceeded, elapsed)
			s.logger.Info("Task finished", zap.String("task", name), zap.Duration("elapsed", elapsed))
		case errors.Is(err, context.Canceled):
			s.observer.ObserveTask(name, TaskFailed, elapsed)
			s.logger.Warn("Task cancelled", zap.String("task", name), zap.Duration("elapsed", elapsed))
		default:
			s.observer.ObserveTask(name, TaskFailed, elapsed)
			s.logger.Error("Task failed",
				zap.String("task", name),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
		}
	}()

	s.logger.Info("Task started", zap.String("task", name))
	return e.task.Run(ctx)
}
