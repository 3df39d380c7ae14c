// Package room implements ADABRA's Round State Machine: the per-room data
// object, its authoritative countdown timer, ownership model, and the
// event-emitting transitions between lobby, armed, and locked.
//
// Every mutating method takes Room.mu for its full duration, from the first
// read to the snapshot handed back for broadcast, so that concurrent
// commands on one room are linearized. No method sends over the network
// itself; callers broadcast the returned events after the lock is released,
// the way game/room_actor.go's handleJoinRequest returns dataSendTasks for
// its caller to dispatch outside the critical section.
package room

import (
	"sync"
	"time"

	"github.com/rfrankel/adabra/internal/protocol"
)

// Clock abstracts wall-clock reads so timer-related behavior can be driven
// deterministically in tests, the same seam game/mocks_test.go provides via
// PeriodicTickerChannelCreator.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Room is the data object for one game: teams, scores, phase, timer, locks,
// ownership, kick list.
type Room struct {
	mu sync.Mutex

	clock Clock

	// Identity
	code    string
	hostKey string

	createdAt      time.Time
	lastActivityAt time.Time

	// Round state machine
	phase           Phase
	roundNumber     int
	durationMs      int
	remainingMs     int
	timerRunning    bool
	timerLastTickAt time.Time
	timeUpAt        *time.Time

	// Teams and players
	teamOrder        []string
	teams            map[string]*Team
	teamTaken        map[string]string
	teamNameLocked   map[string]struct{}
	playerTeams      map[string]string
	lockedOutTeams   map[string]struct{}
	falseStartTeams  map[string]struct{}
	focusLockedTeams map[string]struct{}
	kickedPlayers    map[string]struct{}

	lockedByPlayerID string
	lockedByTeamID   string
	lastBuzz         *LastBuzz
	firstBuzzTeamID  string

	fairPlayEnabled bool

	gameOver     bool
	winnerTeamID string
	winnerText   string

	membersCount int
}

// New creates a Room with two default teams, default duration, phase lobby,
// and FairPlay on.
func New(code, hostKey string, clock Clock) *Room {
	now := clock.Now()
	r := &Room{
		clock:            clock,
		code:             code,
		hostKey:          hostKey,
		createdAt:        now,
		lastActivityAt:   now,
		phase:            PhaseLobby,
		durationMs:       defaultDurationMs,
		remainingMs:      defaultDurationMs,
		teams:            make(map[string]*Team),
		teamTaken:        make(map[string]string),
		teamNameLocked:   make(map[string]struct{}),
		playerTeams:      make(map[string]string),
		lockedOutTeams:   make(map[string]struct{}),
		falseStartTeams:  make(map[string]struct{}),
		focusLockedTeams: make(map[string]struct{}),
		kickedPlayers:    make(map[string]struct{}),
		fairPlayEnabled:  true,
	}
	r.addTeamLocked("1")
	r.addTeamLocked("2")
	return r
}

func (r *Room) addTeamLocked(id string) {
	r.teamOrder = append(r.teamOrder, id)
	r.teams[id] = &Team{ID: id, Name: defaultTeamName(id)}
}

func (r *Room) touch(now time.Time) {
	r.lastActivityAt = now
}

// Code returns the room's 4-character identifier.
func (r *Room) Code() string { return r.code }

// HostKey returns the opaque secret proving host role. Never sent to
// clients in a room snapshot.
func (r *Room) HostKey() string { return r.hostKey }

// IsHost reports whether the supplied key authenticates as host.
func (r *Room) IsHost(key string) bool {
	return key != "" && key == r.hostKey
}

// IsKicked reports whether playerID has been removed from the room and may
// not rejoin.
func (r *Room) IsKicked(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, kicked := r.kickedPlayers[playerID]
	return kicked
}

// TeamForPlayer returns the team a player is bound to, if any, so a
// reconnecting session can re-emit teamSet without the client resending
// setTeam.
func (r *Room) TeamForPlayer(playerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.playerTeams[playerID]
	return t, ok
}

// Join increments the best-effort connected-session count.
func (r *Room) Join() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.membersCount++
	r.touch(r.clock.Now())
}

// Leave decrements the best-effort connected-session count. It is safe to
// call for a lock-holder who disconnects: the room must stay locked until
// the host judges the answer, so Leave never touches phase or lock fields.
func (r *Room) Leave() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.membersCount > 0 {
		r.membersCount--
	}
	r.touch(r.clock.Now())
}

// MembersCount returns the best-effort connected-session count, used by the
// reaper's empty-room rule.
func (r *Room) MembersCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.membersCount
}

// LastActivityAt returns the last time any command, tick, or membership
// change touched this room, used by the reaper's idleness rule.
func (r *Room) LastActivityAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivityAt
}

// Snapshot returns the full public view of the room broadcast to clients.
func (r *Room) Snapshot() PublicView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() PublicView {
	teams := make([]TeamView, 0, len(r.teamOrder))
	for _, id := range r.teamOrder {
		t := r.teams[id]
		teams = append(teams, TeamView{ID: t.ID, Name: t.Name, Score: t.Score})
	}

	taken := make([]TakenTeamView, 0, len(r.teamTaken))
	for teamID, playerID := range r.teamTaken {
		taken = append(taken, TakenTeamView{TeamID: teamID, PlayerID: playerID})
	}

	return PublicView{
		RoomCode:          r.code,
		MembersCount:      r.membersCount,
		TablesChosenCount: len(r.teamTaken),
		Phase:             string(r.phase),
		RoundNumber:       r.roundNumber,
		DurationMs:        r.durationMs,
		RemainingMs:       r.remainingMs,
		TimerRunning:      r.timerRunning,
		TimeUpAt:          millisPtr(r.timeUpAt),
		LockedByPlayerID:  nilIfEmpty(r.lockedByPlayerID),
		LockedByTeamID:    nilIfEmpty(r.lockedByTeamID),
		LastBuzz:          r.lastBuzz,
		LockedOutTeams:    keysOf(r.lockedOutTeams),
		Teams:             teams,
		TakenTeams:        taken,
		TeamNameLocked:    keysOf(r.teamNameLocked),
		FirstBuzzTeamID:   nilIfEmpty(r.firstBuzzTeamID),
		GameOver:          r.gameOver,
		WinnerTeamID:      nilIfEmpty(r.winnerTeamID),
		WinnerText:        nilIfEmpty(r.winnerText),
		FairPlayEnabled:   r.fairPlayEnabled,
		FocusLockedTeams:  keysOf(r.focusLockedTeams),
		FalseStartTeams:   keysOf(r.falseStartTeams),
	}
}

func (r *Room) roomStateEvent() protocol.OutEvent {
	return protocol.NewRoomState(r.snapshotLocked())
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
