// Package scheduler runs periodic maintenance checks with guaranteed
// cancellation: every task started through a Scheduler stops when the task is
// cancelled or when the Scheduler itself is stopped.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrStopped is returned by Every once Stop has been called.
var ErrStopped = errors.New("scheduler stopped")

type task struct {
	id       string
	name     string
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// Scheduler owns a set of periodic tasks. It is created explicitly and torn
// down with Stop; there is no package-level instance.
type Scheduler struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	tasks    map[string]*task
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  bool
}

// New creates a scheduler whose tasks inherit ctx. Cancelling ctx stops every task.
func New(ctx context.Context) *Scheduler {
	sctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    sctx,
		cancel: cancel,
		tasks:  make(map[string]*task),
	}
}

// Every runs fn every interval until the task is cancelled or the scheduler
// stops. fn never runs concurrently with itself. The returned id identifies the
// task for Cancel.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context)) (string, error) {
	if interval <= 0 {
		return "", errors.New("scheduler: interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return "", ErrStopped
	}

	tctx, cancel := context.WithCancel(s.ctx)
	t := &task{
		id:       uuid.NewString(),
		name:     name,
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.tasks[t.id] = t

	s.wg.Add(1)
	go s.run(tctx, t, fn)

	logrus.Debugf("[SCHEDULER] Task %s (%s) scheduled every %s", t.name, t.id, interval)
	return t.id, nil
}

func (s *Scheduler) run(ctx context.Context, t *task, fn func(ctx context.Context)) {
	defer s.wg.Done()
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logrus.Errorf("[SCHEDULER] Task %s panic: %v", t.name, r)
					}
				}()
				fn(ctx)
			}()
		}
	}
}

// Cancel stops a single task and waits for its current run to finish.
// It reports whether the task existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	t.cancel()
	<-t.done
	return true
}

// Len returns the number of scheduled tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every task and waits for running callbacks to return.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.tasks = make(map[string]*task)
		s.mu.Unlock()

		s.cancel()
		s.wg.Wait()
		logrus.Debug("[SCHEDULER] All tasks stopped")
	})
}
