package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutor_RunsAfterDelay(t *testing.T) {
	e := NewExecutor()
	done := make(chan struct{})

	e.Schedule("k", 10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled call never ran")
	}
}

func TestExecutor_CoalescesSameKey(t *testing.T) {
	e := NewExecutor()
	var runs atomic.Int32
	got := make(chan int, 3)

	for i := 1; i <= 3; i++ {
		i := i
		e.Schedule("k", 20*time.Millisecond, func() {
			runs.Add(1)
			got <- i
		})
	}

	select {
	case v := <-got:
		assert.Equal(t, 3, v, "only the last scheduled call should run")
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled call never ran")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestExecutor_IndependentKeys(t *testing.T) {
	e := NewExecutor()
	var runs atomic.Int32

	e.Schedule("a", 10*time.Millisecond, func() { runs.Add(1) })
	e.Schedule("b", 10*time.Millisecond, func() { runs.Add(1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())
}

func TestExecutor_Cancel(t *testing.T) {
	e := NewExecutor()
	var runs atomic.Int32

	e.Schedule("k", 20*time.Millisecond, func() { runs.Add(1) })
	assert.True(t, e.Cancel("k"))
	assert.False(t, e.Cancel("k"))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestExecutor_CancelRacesExpiredTimer(t *testing.T) {
	e := NewExecutor()
	var fired atomic.Int32

	// Cancel exactly at expiry, over and over. Whenever Cancel wins the
	// race (returns true) the expired timer has lost ownership and its
	// call must not run, so the fire count matches the lost cancels
	// exactly.
	expected := int32(0)
	for i := 0; i < 2000; i++ {
		e.Schedule("k", 100*time.Microsecond, func() { fired.Add(1) })
		time.Sleep(100 * time.Microsecond)
		if !e.Cancel("k") {
			expected++
		}
	}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, expected, fired.Load())
}

func TestExecutor_RescheduleAtExpiryFiresReplacement(t *testing.T) {
	e := NewExecutor()

	for i := 0; i < 500; i++ {
		fresh := make(chan struct{})
		e.Schedule("k", 100*time.Microsecond, func() {})
		time.Sleep(100 * time.Microsecond)
		e.Schedule("k", 100*time.Microsecond, func() { close(fresh) })

		// The replacement always runs, whether or not the first timer
		// had already claimed its slot.
		select {
		case <-fresh:
		case <-time.After(2 * time.Second):
			t.Fatal("replacement call never ran")
		}
	}
}

func TestExecutor_CancelAll(t *testing.T) {
	e := NewExecutor()
	var runs atomic.Int32

	e.Schedule("a", 20*time.Millisecond, func() { runs.Add(1) })
	e.Schedule("b", 20*time.Millisecond, func() { runs.Add(1) })
	e.CancelAll()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
	assert.False(t, e.Cancel("a"))
}
