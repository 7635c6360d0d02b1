package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllSuccess(t *testing.T) {
	q, err := NewQueue(4, "test")
	require.NoError(t, err)
	defer q.Release()

	var count int32
	tasks := make([]func(ctx context.Context) error, 0)
	for i := 0; i < 20; i++ {
		tasks = append(tasks, func(ctx context.Context) error {
			atomic.AddInt32(&count, 1)
			return nil
		})
	}

	assert.NoError(t, q.RunAll(context.Background(), tasks))
	assert.Equal(t, int32(20), atomic.LoadInt32(&count))
}

func TestRunAllFirstFailureCancels(t *testing.T) {
	q, err := NewQueue(1, "test")
	require.NoError(t, err)
	defer q.Release()

	boom := errors.New("boom")
	var after int32
	tasks := []func(ctx context.Context) error{
		func(ctx context.Context) error { return boom },
	}
	for i := 0; i < 5; i++ {
		tasks = append(tasks, func(ctx context.Context) error {
			atomic.AddInt32(&after, 1)
			return nil
		})
	}

	err = q.RunAll(context.Background(), tasks)
	assert.ErrorIs(t, err, boom)
	// a single worker runs the failing task first; everything after it sees the cancellation
	assert.Equal(t, int32(0), atomic.LoadInt32(&after))
}

func TestRunAllRecoversPanics(t *testing.T) {
	q, err := NewQueue(2, "test")
	require.NoError(t, err)
	defer q.Release()

	err = q.RunAll(context.Background(), []func(ctx context.Context) error{
		func(ctx context.Context) error { panic("kaboom") },
	})
	assert.EqualError(t, err, "kaboom")
}

func TestRunAllParentCancelled(t *testing.T) {
	q, err := NewQueue(2, "test")
	require.NoError(t, err)
	defer q.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = q.RunAll(ctx, []func(ctx context.Context) error{
		func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		},
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
