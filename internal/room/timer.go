package room

import (
	"time"

	"github.com/rfrankel/adabra/internal/protocol"
)

// Tick advances remainingMs by the wall-clock delta since the last tick,
// immune to missed ticks under load. If the clock
// reaches 0 while armed, it fires the time-up transition to lobby and
// returns the resulting events, leaving remainingMs at 0 until the next
// beep. Called by the Timer Service once per cadence for every room; a
// no-op (nil, false) when the timer isn't running.
func (r *Room) Tick(now time.Time) ([]protocol.OutEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.timerRunning {
		return nil, false
	}

	delta := now.Sub(r.timerLastTickAt)
	if delta < 0 {
		delta = 0
	}
	r.remainingMs -= int(delta.Milliseconds())
	if r.remainingMs < 0 {
		r.remainingMs = 0
	}
	r.timerLastTickAt = now

	if r.remainingMs > 0 {
		return nil, false
	}

	r.timerRunning = false
	r.setTimeUpLocked(now)
	r.resetRoundLocked(now)
	r.remainingMs = 0
	r.touch(now)

	return []protocol.OutEvent{protocol.NewTimeUp(), r.roomStateEvent()}, true
}
