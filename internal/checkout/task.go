package checkout

import (
	"sync"
	"time"
)

// Task is a single-shot delayed callback that can be cancelled until it starts.
type Task struct {
	mu       sync.Mutex
	timer    *time.Timer
	fired    bool
	canceled bool
	done     chan struct{}
}

// Schedule runs fn once after d unless the task is cancelled first.
func Schedule(d time.Duration, fn func()) *Task {
	t := &Task{done: make(chan struct{})}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.canceled {
			t.mu.Unlock()
			return
		}
		t.fired = true
		t.mu.Unlock()
		defer close(t.done)
		fn()
	})
	return t
}

// Cancel prevents the callback from running. It reports whether it did so;
// cancelling twice, or after the callback has started, returns false.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.canceled {
		return false
	}
	t.canceled = true
	t.timer.Stop()
	close(t.done)
	return true
}

// Done is closed once the callback has returned or the task was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Fired reports whether the callback started.
func (t *Task) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}
