package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rfrankel/adabra/internal/protocol"
)

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	s1, c1 := newSpyingSession()
	s2, c2 := newSpyingSession()
	hub.Subscribe("ABCD", s1)
	hub.Subscribe("ABCD", s2)

	hub.Broadcast("ABCD", []protocol.OutEvent{protocol.NewBeep()})

	waitFor(t, c1, protocol.EventBeep)
	waitFor(t, c2, protocol.EventBeep)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	s1, c1 := newSpyingSession()
	hub.Subscribe("ABCD", s1)
	hub.Unsubscribe("ABCD", s1)

	hub.Broadcast("ABCD", []protocol.OutEvent{protocol.NewBeep()})

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, c1.events(t))
}

func TestHub_SendToIsPrivate(t *testing.T) {
	hub := NewHub()
	s1, c1 := newSpyingSession()
	s2, c2 := newSpyingSession()
	hub.Subscribe("ABCD", s1)
	hub.Subscribe("ABCD", s2)

	hub.SendTo(s1, []protocol.OutEvent{protocol.NewErrorMsg("only for you")})

	waitFor(t, c1, protocol.EventErrorMsg)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, c2.events(t))
}

func TestHub_KickClosesAndNotifiesMatchingPlayer(t *testing.T) {
	hub := NewHub()
	s1, c1 := newSpyingSession()
	s1.attach(nil, false, "p1")
	hub.Subscribe("ABCD", s1)

	hub.Kick("ABCD", "p1", protocol.ReasonRemovedByHost)

	waitFor(t, c1, protocol.EventKicked)
	assert.Eventually(t, func() bool {
		c1.mu.Lock()
		defer c1.mu.Unlock()
		return c1.closed
	}, time.Second, time.Millisecond)
}
