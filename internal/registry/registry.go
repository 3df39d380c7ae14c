// Package registry implements the process-wide Room Registry: it creates,
// looks up, and reaps rooms.
//
// This generalizes game/lobby.go's channel-actor lobby to a mutex-guarded
// map, the simpler shape the pack's realtime-room repos
// (sakshamg567-doodlz's internal/room/manager.go,
// aaronzipp-you-are-officially-sus's internal/store/memory.go) use for the
// same job. Documented as a resolved Open Question in DESIGN.md.
package registry

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rfrankel/adabra/internal/protocol"
	"github.com/rfrankel/adabra/internal/room"
	"github.com/rfrankel/adabra/internal/roomcode"
)

// Broadcaster fans out the events a room's transition produced to every
// session subscribed to that room. The session layer supplies the concrete
// implementation; the registry never holds connections itself.
type Broadcaster interface {
	Broadcast(roomCode string, events []protocol.OutEvent)
}

// Clock is the same wall-clock seam room.Clock uses, threaded through so
// the registry and its rooms share one notion of "now".
type Clock = room.Clock

// Registry is the process-wide mapping from room code to Room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room

	clock       Clock
	codes       *roomcode.Generator
	broadcaster Broadcaster

	idleTimeout  time.Duration
	emptyTimeout time.Duration
}

// New builds an empty Registry. broadcaster may be nil in tests that don't
// exercise TickAll's fan-out.
func New(clock Clock, codes *roomcode.Generator, broadcaster Broadcaster, idleTimeout, emptyTimeout time.Duration) *Registry {
	return &Registry{
		rooms:        make(map[string]*room.Room),
		clock:        clock,
		codes:        codes,
		broadcaster:  broadcaster,
		idleTimeout:  idleTimeout,
		emptyTimeout: emptyTimeout,
	}
}

// CreateRoom generates a fresh code and host key and creates a Room with
// two default teams, default duration, and FairPlay on.
func (reg *Registry) CreateRoom() (*room.Room, error) {
	code, err := reg.codes.NextCode()
	if err != nil {
		return nil, err
	}
	hostKey, err := roomcode.NewHostKey()
	if err != nil {
		reg.codes.Release(code)
		return nil, err
	}

	r := room.New(code, hostKey, reg.clock)

	reg.mu.Lock()
	reg.rooms[code] = r
	reg.mu.Unlock()

	log.Info().Str("room", code).Msg("room created")
	return r, nil
}

// GetRoom performs a case-insensitive lookup by room code.
func (reg *Registry) GetRoom(code string) (*room.Room, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// TickAll advances every room's timer by the delta to now, broadcasting the
// events a firing room produced. Called once per cadence by the Timer
// Service. It never blocks on a room lock across I/O; Room.Tick returns
// its snapshot before this unlocks and broadcasts.
func (reg *Registry) TickAll(now time.Time) {
	reg.mu.RLock()
	rooms := make([]*room.Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	for _, r := range rooms {
		events, fired := r.Tick(now)
		if fired && reg.broadcaster != nil {
			reg.broadcaster.Broadcast(r.Code(), events)
		}
	}
}

// Sweep runs one reaper pass: deletes any room whose idleMs (now minus
// lastActivityAt) exceeds idleTimeout, or whose idleMs exceeds emptyTimeout
// while it has zero connected members. It holds the registry read lock only
// to copy the room list, and takes the write lock only while actually
// deleting.
func (reg *Registry) Sweep(now time.Time) []string {
	reg.mu.RLock()
	candidates := make([]*room.Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		candidates = append(candidates, r)
	}
	reg.mu.RUnlock()

	var removed []string
	for _, r := range candidates {
		idle := now.Sub(r.LastActivityAt())
		if idle > reg.idleTimeout || (r.MembersCount() == 0 && idle > reg.emptyTimeout) {
			reg.remove(r.Code())
			removed = append(removed, r.Code())
		}
	}
	return removed
}

func (reg *Registry) remove(code string) {
	reg.mu.Lock()
	delete(reg.rooms, code)
	reg.mu.Unlock()
	reg.codes.Release(code)
	log.Info().Str("room", code).Msg("room reaped")
}

// Count returns the number of live rooms, mostly useful for tests and
// operational logging.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// RunReaper runs Sweep every interval until stop is closed. Call it in its
// own goroutine from main.
func (reg *Registry) RunReaper(interval time.Duration, clock Clock, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reg.Sweep(clock.Now())
		case <-stop:
			return
		}
	}
}
