package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunnerRejectsBeforeStart(t *testing.T) {
	r := NewRunner("test", zap.NewNop())
	err := r.Go("task", func(ctx context.Context) {})
	assert.Error(t, err)
}

func TestRunnerJoinsTasksOnShutdown(t *testing.T) {
	r := NewRunner("test", zap.NewNop())
	r.Start(context.Background())

	var completed int32
	require.NoError(t, r.Go("task", func(ctx context.Context) {
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&completed, 1)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&completed))
}

func TestRunnerRejectsAfterShutdown(t *testing.T) {
	r := NewRunner("test", zap.NewNop())
	r.Start(context.Background())
	require.NoError(t, r.Shutdown(context.Background()))

	err := r.Go("late", func(ctx context.Context) {})
	assert.Error(t, err)
}

func TestRunnerAbsorbsPanics(t *testing.T) {
	r := NewRunner("test", zap.NewNop())
	r.Start(context.Background())

	require.NoError(t, r.Go("boom", func(ctx context.Context) {
		panic("boom")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, r.Shutdown(ctx))
}

func TestRunnerCancelsStragglersOnDeadline(t *testing.T) {
	r := NewRunner("test", zap.NewNop())
	r.Start(context.Background())

	var sawCancel int32
	require.NoError(t, r.Go("slow", func(ctx context.Context) {
		<-ctx.Done()
		atomic.AddInt32(&sawCancel, 1)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&sawCancel))
}
