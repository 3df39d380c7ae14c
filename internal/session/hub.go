package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rfrankel/adabra/internal/protocol"
)

// Hub tracks which sessions are subscribed to which room and fans out
// events to them. It generalizes game/lobby.go's single in-process
// subscriber map to be keyed per room rather than per whole-server lobby,
// since ADABRA's broadcast group is the room, not the process.
type Hub struct {
	mu      sync.RWMutex
	members map[string]map[*Session]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{members: make(map[string]map[*Session]struct{})}
}

// Subscribe adds s to roomCode's broadcast group.
func (h *Hub) Subscribe(roomCode string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.members[roomCode]
	if !ok {
		set = make(map[*Session]struct{})
		h.members[roomCode] = set
	}
	set[s] = struct{}{}
}

// Unsubscribe removes s from roomCode's broadcast group, pruning the group
// entirely once empty.
func (h *Hub) Unsubscribe(roomCode string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.members[roomCode]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.members, roomCode)
	}
}

// Broadcast sends every event to every session subscribed to roomCode. It
// implements registry.Broadcaster, so the Timer Service's fired-tick path
// and a command's mutating transition share one fan-out path. The snapshot
// of subscribers is taken under the hub lock; the sends themselves happen
// outside it, since locks must never be held across network sends.
func (h *Hub) Broadcast(roomCode string, events []protocol.OutEvent) {
	h.mu.RLock()
	set := h.members[roomCode]
	subscribers := make([]*Session, 0, len(set))
	for s := range set {
		subscribers = append(subscribers, s)
	}
	h.mu.RUnlock()

	for _, s := range subscribers {
		for _, evt := range events {
			s.enqueue(evt)
		}
	}
}

// SendTo unicasts events to a single session, used for replies only the
// issuing connection should see (teamSet acks, buzzRejected, errorMsg).
func (h *Hub) SendTo(s *Session, events []protocol.OutEvent) {
	for _, evt := range events {
		s.enqueue(evt)
	}
}

// Kick sends a kicked event to every session in roomCode currently acting
// as playerID and closes their connection, in response to hostRemoveTeam.
// It does not remove the room itself.
func (h *Hub) Kick(roomCode, playerID, reason string) {
	h.mu.RLock()
	set := h.members[roomCode]
	targets := make([]*Session, 0, 1)
	for s := range set {
		if s.PlayerID() == playerID {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.enqueue(protocol.NewKicked(roomCode, reason))
		s.Close()
		log.Info().Str("room", roomCode).Str("player", playerID).Msg("player kicked")
	}
}
