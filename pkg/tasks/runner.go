package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner tracks fire-and-forget workflows so the process can join them on
// shutdown. Each task gets its own goroutine; nothing awaits it except the
// shutdown path.
type Runner struct {
	name   string
	logger *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closed  bool
}

// NewRunner builds a runner. Start must be called before Go.
func NewRunner(name string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{name: name, logger: logger}
}

// Start binds the runner to a parent context. Safe to call once.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.started = true
	r.logger.Sugar().Infow("runner started", "runner", r.name)
}

// Go spawns fn on its own goroutine. A panic in fn is logged and absorbed
// so a broken task can never take the process down.
func (r *Runner) Go(name string, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return fmt.Errorf("runner %s not started", r.name)
	}
	if r.closed {
		r.mu.Unlock()
		return fmt.Errorf("runner %s shutting down", r.name)
	}
	ctx := r.ctx
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Sugar().Errorw("task panicked", "runner", r.name, "task", name, "panic", rec)
			}
		}()
		fn(ctx)
	}()
	return nil
}

// Shutdown stops accepting tasks and waits for in-flight ones. When ctx
// expires first, outstanding tasks are cancelled and their exit is awaited
// briefly before giving up.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.started || r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		r.logger.Sugar().Infow("runner drained", "runner", r.name)
		return nil
	case <-ctx.Done():
		r.cancel()
		select {
		case <-done:
			return nil
		case <-time.After(time.Second):
			r.logger.Sugar().Warnw("runner abandoned tasks", "runner", r.name)
			return ctx.Err()
		}
	}
}
