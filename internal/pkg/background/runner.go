// Package background runs detached side effects whose outcome never reaches the caller.
package background

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Task is a detached unit of work. Returned errors only reach the log.
type Task func(ctx context.Context) error

// Runner starts detached tasks and tracks them so shutdown can drain in-flight work.
type Runner struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      conc.WaitGroup
}

// NewRunner creates a Runner. timeout bounds every task; zero means no bound.
func NewRunner(logger *zap.Logger, timeout time.Duration) *Runner {
	return &Runner{
		logger:  logger,
		timeout: timeout,
	}
}

// Go starts task on its own goroutine and returns immediately. The task context keeps the
// parent's values but not its cancellation, so it outlives the request that spawned it.
func (r *Runner) Go(parent context.Context, name string, task Task) {
	detached := context.WithoutCancel(parent)
	r.wg.Go(func() {
		var (
			ctx    context.Context
			cancel context.CancelFunc
		)
		if r.timeout > 0 {
			ctx, cancel = context.WithTimeout(detached, r.timeout)
		} else {
			ctx, cancel = context.WithCancel(detached)
		}
		defer cancel()

		var err error
		recovered := panics.Try(func() { err = task(ctx) })
		switch {
		case recovered != nil:
			r.logger.Error("Detached task panicked",
				zap.String("task", name),
				zap.Any("panic", recovered.Value),
				zap.String("stack", string(recovered.Stack)))
		case err != nil:
			r.logger.Warn("Detached task failed", zap.String("task", name), zap.Error(err))
		default:
			r.logger.Debug("Detached task completed", zap.String("task", name))
		}
	})
}

// Shutdown waits for in-flight tasks or until ctx is done.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
