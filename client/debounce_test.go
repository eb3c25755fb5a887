package client

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesSameKey(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		i := i
		d.Do("k", func() {
			calls.Add(1)
			last.Store(int32(i))
		})
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(5), last.Load(), "the last scheduled call wins")
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	defer d.Stop()

	var a, b atomic.Int32
	d.Do("a", func() { a.Add(1) })
	d.Do("b", func() { b.Add(1) })

	require.Eventually(t, func() bool {
		return a.Load() == 1 && b.Load() == 1
	}, time.Second, time.Millisecond)
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer(time.Hour)

	var calls atomic.Int32
	d.Do("k", func() { calls.Add(1) })
	d.Stop()

	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncerStaleFireKeepsReplacementCancellable(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)
	var calls atomic.Int32

	d.Do("k", func() { calls.Add(1) })

	// Park the first fire's cleanup on the mutex, then install a
	// replacement while it waits. When the parked fire resumes it must
	// leave the replacement's entry alone, or Stop cannot cancel it.
	d.mu.Lock()
	time.Sleep(30 * time.Millisecond)
	d.delay = time.Hour
	d.scheduleLocked("k", func() { calls.Add(1) })
	d.mu.Unlock()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	d.Stop()
	assert.Equal(t, int32(1), calls.Load(), "the replacement was cancelled, not orphaned")
}

func TestDebouncerZeroDelayUsesDefault(t *testing.T) {
	d := NewDebouncer(0)
	defer d.Stop()
	assert.Equal(t, DefaultDebounce, d.delay)
}
