// Package worker runs a fixed set of indexed tasks with bounded concurrency
// and collects every outcome before returning.
package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"sitemap-extract/pkg/logger"
)

// Config holds pool settings.
type Config struct {
	// Limit caps the number of tasks in flight. Zero or negative runs every
	// task at once.
	Limit int `mapstructure:"concurrency"`
	// TaskTimeout bounds a single task. Zero means no per-task deadline.
	TaskTimeout time.Duration `mapstructure:"page_timeout"`
}

// Result is the outcome of the task at Index.
type Result[T any] struct {
	Index    int
	Value    T
	Err      error
	Duration time.Duration
}

// PanicError is returned for a task that panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Pool dispatches tasks through an errgroup with SetLimit.
type Pool struct {
	config  Config
	metrics *PoolMetrics
	log     *logger.Logger
}

func NewPool(config Config) *Pool {
	return &Pool{
		config:  config,
		metrics: NewPoolMetrics(),
		log:     logger.GetLogger().WithField("component", "worker_pool"),
	}
}

// Metrics returns the live counters of the pool.
func (p *Pool) Metrics() *PoolMetrics {
	return p.metrics
}

// Limit reports the effective concurrency for n tasks.
func (p *Pool) Limit(n int) int {
	if p.config.Limit <= 0 || p.config.Limit > n {
		return n
	}
	return p.config.Limit
}

// Gather runs fn for every index in [0, n) and returns one Result per index,
// in index order. Task errors never abort sibling tasks. The returned error is
// ctx's error when ctx was cancelled at any point before Gather returned;
// tasks that never started carry it too.
func Gather[T any](ctx context.Context, p *Pool, n int, fn func(ctx context.Context, i int) (T, error)) ([]Result[T], error) {
	results := make([]Result[T], n)
	if n == 0 {
		return results, nil
	}

	var g errgroup.Group
	if p.config.Limit > 0 {
		g.SetLimit(p.config.Limit)
	}

	p.log.WithFields(map[string]interface{}{
		"tasks": n,
		"limit": p.Limit(n),
	}).Debug("Dispatching tasks")

	var cancelled error
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			cancelled = err
			for j := i; j < n; j++ {
				results[j] = Result[T]{Index: j, Err: err}
				p.metrics.IncrementTasksRejected()
			}
			break
		}

		p.metrics.IncrementTasksSubmitted()
		g.Go(func() error {
			results[i] = execute(p, ctx, i, func(taskCtx context.Context) (T, error) {
				return fn(taskCtx, i)
			})
			return nil
		})
	}
	g.Wait()

	if cancelled == nil {
		cancelled = ctx.Err()
	}
	return results, cancelled
}

func execute[T any](p *Pool, ctx context.Context, i int, fn func(context.Context) (T, error)) (res Result[T]) {
	res.Index = i
	taskCtx := ctx
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.log.WithFields(map[string]interface{}{
				"task":  i,
				"panic": r,
			}).Error("Task panicked")
			res.Err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		res.Duration = time.Since(start)
		p.metrics.RecordTaskResult(res.Err, res.Duration)
	}()

	res.Value, res.Err = fn(taskCtx)
	return res
}
