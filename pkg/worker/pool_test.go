package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGather_RespectsLimit(t *testing.T) {
	pool := NewPool(Config{Limit: 3})

	var inFlight, peak atomic.Int32
	results, err := Gather(context.Background(), pool, 20, func(ctx context.Context, i int) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return i * i, nil
	})

	require.NoError(t, err)
	require.Len(t, results, 20)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, i*i, r.Value)
	}
}

func TestGather_UnboundedRunsAllAtOnce(t *testing.T) {
	pool := NewPool(Config{Limit: 0})
	assert.Equal(t, 7, pool.Limit(7))

	const n = 5
	var started atomic.Int32
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		Gather(context.Background(), pool, n, func(ctx context.Context, i int) (struct{}, error) {
			started.Add(1)
			<-release
			return struct{}{}, nil
		})
	}()

	assert.Eventually(t, func() bool { return started.Load() == n }, time.Second, 5*time.Millisecond)
	close(release)
	<-done
}

func TestGather_ErrorsDoNotStopSiblings(t *testing.T) {
	pool := NewPool(Config{Limit: 2})
	boom := errors.New("boom")

	results, err := Gather(context.Background(), pool, 4, func(ctx context.Context, i int) (string, error) {
		if i == 1 {
			return "", boom
		}
		if i == 2 {
			panic("bad page")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)

	var panicErr *PanicError
	require.ErrorAs(t, results[2].Err, &panicErr)
	assert.Equal(t, "bad page", panicErr.Value)
	assert.Equal(t, "ok", results[3].Value)

	snap := pool.Metrics().GetSnapshot()
	assert.Equal(t, uint64(4), snap.TasksSubmitted)
	assert.Equal(t, uint64(2), snap.TasksCompleted)
	assert.Equal(t, uint64(2), snap.TasksFailed)
}

func TestGather_TaskTimeout(t *testing.T) {
	pool := NewPool(Config{Limit: 1, TaskTimeout: 20 * time.Millisecond})

	results, err := Gather(context.Background(), pool, 1, func(ctx context.Context, i int) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}

func TestGather_CancelledContext(t *testing.T) {
	pool := NewPool(Config{Limit: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results, err := Gather(ctx, pool, 3, func(ctx context.Context, i int) (int, error) {
		calls.Add(1)
		return i, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Equal(t, uint64(3), pool.Metrics().GetSnapshot().TasksRejected)
}

func TestGather_CancelledAfterDispatch(t *testing.T) {
	pool := NewPool(Config{Limit: 0})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 3)
	go func() {
		for i := 0; i < 3; i++ {
			<-started
		}
		cancel()
	}()

	results, err := Gather(ctx, pool, 3, func(ctx context.Context, i int) (int, error) {
		started <- struct{}{}
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Equal(t, uint64(3), pool.Metrics().GetSnapshot().TasksSubmitted)
}

func TestGather_Empty(t *testing.T) {
	results, err := Gather(context.Background(), NewPool(Config{}), 0, func(ctx context.Context, i int) (int, error) {
		t.Fatal("should not be called")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}
