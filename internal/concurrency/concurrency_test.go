package concurrency_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/deppy/internal/concurrency"
	"github.com/operator-framework/deppy/internal/errs"
)

func TestSignalReturnsNilBeforeCancellation(t *testing.T) {
	assert.NoError(t, concurrency.Signal(context.Background()))
}

func TestSignalReturnsErrCancelledAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := concurrency.Signal(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCancelled))
}

func TestSchedulerRunsAllItems(t *testing.T) {
	var count int64
	s := concurrency.Scheduler{Limit: 2}
	err := s.Run(context.Background(), 10, func(_ context.Context, _ int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 10, count)
}

func TestSchedulerStopsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	s := concurrency.Scheduler{Limit: 4}
	err := s.Run(context.Background(), 10, func(_ context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSchedulerDefaultsLimitToOne(t *testing.T) {
	var running, maxRunning int64
	s := concurrency.Scheduler{}
	_ = s.Run(context.Background(), 5, func(_ context.Context, _ int) error {
		n := atomic.AddInt64(&running, 1)
		if n > atomic.LoadInt64(&maxRunning) {
			atomic.StoreInt64(&maxRunning, n)
		}
		atomic.AddInt64(&running, -1)
		return nil
	})
	assert.LessOrEqual(t, maxRunning, int64(1))
}
