package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Cyclone1070/beachai/internal/testing/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 7, 4, 9, 0, 0, 0, time.UTC)

func TestAcquire_UnconfiguredSourceUnlimited(t *testing.T) {
	l := New(FailFast, 0)

	for i := 0; i < 100; i++ {
		require.NoError(t, l.Acquire(context.Background(), "anything"))
	}
}

func TestAcquire_FailFast_CapacityThenRejects(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(FailFast, 0, WithClock(clk))
	l.Configure("noaa", 3, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background(), "noaa"))
	}
	err := l.Acquire(context.Background(), "noaa")

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, "noaa", rl.Source)
	assert.Equal(t, time.Second, rl.RetryAfter)
}

func TestAcquire_RefillAfterInterval(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(FailFast, 0, WithClock(clk))
	l.Configure("nws", 2, 0.5)
	require.NoError(t, l.Acquire(context.Background(), "nws"))
	require.NoError(t, l.Acquire(context.Background(), "nws"))

	clk.Advance(1500 * time.Millisecond)
	assert.Error(t, l.Acquire(context.Background(), "nws"))

	clk.Advance(500 * time.Millisecond)
	assert.NoError(t, l.Acquire(context.Background(), "nws"))
}

func TestAcquire_RefillCappedAtCapacity(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(FailFast, 0, WithClock(clk))
	l.Configure("places", 2, 1)

	clk.Advance(time.Hour)

	assert.Equal(t, 2.0, l.Available("places"))
}

func TestAcquire_NeverExceedsBudgetOverWindow(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(FailFast, 0, WithClock(clk))
	const capacity, rate = 5.0, 2.0
	l.Configure("noaa", capacity, rate)

	granted := 0
	// 10 seconds in 100ms steps, 4 attempts per step.
	for step := 0; step < 100; step++ {
		for i := 0; i < 4; i++ {
			if l.Acquire(context.Background(), "noaa") == nil {
				granted++
			}
		}
		clk.Advance(100 * time.Millisecond)
	}

	assert.LessOrEqual(t, float64(granted), capacity+rate*10)
	assert.GreaterOrEqual(t, granted, int(capacity+rate*9))
}

func TestAcquire_Block_WaitsForRefill(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(Block, 2*time.Second, WithClock(clk))
	l.Configure("noaa", 1, 1)
	require.NoError(t, l.Acquire(context.Background(), "noaa"))

	done := make(chan error, 1)
	go func() { done <- l.Acquire(context.Background(), "noaa") }()

	require.Eventually(t, func() bool { return clk.Waiters() == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("acquire returned before refill")
	default:
	}

	clk.Advance(time.Second)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not wake up after refill")
	}
}

func TestAcquire_Block_FailsWhenWaitExceedsBound(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(Block, 2*time.Second, WithClock(clk))
	l.Configure("places", 1, 0.1)
	require.NoError(t, l.Acquire(context.Background(), "places"))

	err := l.Acquire(context.Background(), "places")

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 10*time.Second, rl.RetryAfter)
	assert.Equal(t, 0, clk.Waiters())
}

func TestAcquire_Block_RespectsContextDeadline(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(Block, time.Minute, WithClock(clk))
	l.Configure("noaa", 1, 0.5)
	require.NoError(t, l.Acquire(context.Background(), "noaa"))

	ctx, cancel := context.WithDeadline(context.Background(), epoch.Add(time.Second))
	defer cancel()

	err := l.Acquire(ctx, "noaa")

	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestAcquire_Block_CancelledWhileWaiting(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(Block, time.Minute, WithClock(clk))
	l.Configure("noaa", 1, 1)
	require.NoError(t, l.Acquire(context.Background(), "noaa"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx, "noaa") }()
	require.Eventually(t, func() bool { return clk.Waiters() == 1 }, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("acquire ignored cancellation")
	}
}

func TestAcquire_ConcurrentNoLostOrDoubleCountedTokens(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(FailFast, 0, WithClock(clk))
	l.Configure("noaa", 50, 1)

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire(context.Background(), "noaa") == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), granted.Load())
	assert.InDelta(t, 0.0, l.Available("noaa"), 1e-9)
}

func TestConfigure_ReplacesBucket(t *testing.T) {
	clk := mock.NewClock(epoch)
	l := New(FailFast, 0, WithClock(clk))
	l.Configure("nws", 1, 1)
	require.NoError(t, l.Acquire(context.Background(), "nws"))

	l.Configure("nws", 3, 1)

	assert.Equal(t, 3.0, l.Available("nws"))
	assert.Equal(t, []string{"nws"}, l.Sources())
}

// steppingClock moves forward by step on every read.
type steppingClock struct {
	start time.Time
	step  time.Duration
	reads atomic.Int64
}

func (c *steppingClock) Now() time.Time {
	return c.start.Add(time.Duration(c.reads.Add(1)) * c.step)
}

func (c *steppingClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (c *steppingClock) elapsed() time.Duration {
	return time.Duration(c.reads.Load()) * c.step
}

func TestAcquire_ConcurrentClockReadsNeverRefillTwice(t *testing.T) {
	for round := 0; round < 20; round++ {
		clk := &steppingClock{start: epoch, step: time.Millisecond}
		l := New(FailFast, 0, WithClock(clk))
		l.Configure("noaa", 10, 100)

		var granted atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 400; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if l.Acquire(context.Background(), "noaa") == nil {
					granted.Add(1)
				}
			}()
		}
		wg.Wait()

		budget := 10 + 100*clk.elapsed().Seconds()
		require.LessOrEqual(t, float64(granted.Load()), budget+1e-6, "round %d", round)
	}
}
