package conversation

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SessionTimer schedules delayed pacing actions for one conversation
// session. All pending timers are cancelled together when the session is
// torn down, so a disposed session never dispatches stale callbacks.
type SessionTimer struct {
	timers map[string]*time.Timer
	mu     sync.Mutex
	nextID int64
}

// NewSessionTimer creates an empty session timer.
func NewSessionTimer() *SessionTimer {
	return &SessionTimer{timers: make(map[string]*time.Timer)}
}

// ScheduleAfter schedules fn to run after the delay and returns a timer id.
// A zero or negative delay runs fn inline.
func (t *SessionTimer) ScheduleAfter(delay time.Duration, fn func()) string {
	if delay <= 0 {
		fn()
		return ""
	}

	t.mu.Lock()
	t.nextID++
	id := fmt.Sprintf("timer_%d", t.nextID)
	t.mu.Unlock()

	timer := time.AfterFunc(delay, func() {
		fn()
		t.mu.Lock()
		delete(t.timers, id)
		t.mu.Unlock()
	})

	t.mu.Lock()
	t.timers[id] = timer
	t.mu.Unlock()

	slog.Debug("SessionTimer.ScheduleAfter: scheduled", "id", id, "delay", delay)
	return id
}

// Cancel stops the timer with the given id if it is still pending.
func (t *SessionTimer) Cancel(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
		slog.Debug("SessionTimer.Cancel: cancelled", "id", id)
	}
}

// Stop cancels all pending timers. Called on session teardown.
func (t *SessionTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	slog.Debug("SessionTimer.Stop: all timers cancelled")
}
