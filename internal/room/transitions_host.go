package room

import (
	"fmt"
	"strings"
	"time"

	"github.com/rfrankel/adabra/internal/protocol"
)

func (r *Room) requireHost(isHost bool) error {
	if !isHost {
		return ErrNotHost
	}
	if r.gameOver {
		return ErrGameOver
	}
	return nil
}

// HostBeepStart arms the round: lobby -> armed.
func (r *Room) HostBeepStart(isHost bool) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}
	if r.phase != PhaseLobby {
		return nil, ErrWrongPhase
	}

	now := r.clock.Now()
	r.falseStartTeams = map[string]struct{}{}
	r.focusLockedTeams = map[string]struct{}{}
	r.lockedOutTeams = map[string]struct{}{}
	r.lastBuzz = nil
	r.firstBuzzTeamID = ""
	r.timeUpAt = nil
	r.remainingMs = r.durationMs
	r.timerRunning = true
	r.timerLastTickAt = now
	r.phase = PhaseArmed
	r.touch(now)

	return []protocol.OutEvent{protocol.NewBeep(), r.roomStateEvent()}, nil
}

// HostPauseTimer truly pauses: armed -> lobby, resetting remainingMs to
// durationMs. DESIGN.md documents the reasoning behind treating pause as a
// full reset rather than a freeze-in-place.
func (r *Room) HostPauseTimer(isHost bool) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}
	if r.phase != PhaseArmed {
		return nil, ErrWrongPhase
	}

	now := r.clock.Now()
	r.remainingMs = r.durationMs
	r.timerRunning = false
	r.clearLockLocked()
	r.phase = PhaseLobby
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// HostCorrect awards the point and ends the round: locked -> lobby.
func (r *Room) HostCorrect(isHost bool) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}
	if r.phase != PhaseLocked {
		return nil, ErrWrongPhase
	}

	now := r.clock.Now()
	teamID := r.lockedByTeamID
	if t, ok := r.teams[teamID]; ok {
		t.Score++
	}
	r.roundNumber++
	r.clearLockLocked()
	r.phase = PhaseLobby
	r.touch(now)

	return []protocol.OutEvent{protocol.NewCorrectFx(teamID), r.roomStateEvent()}, nil
}

// HostIncorrect bars the team and resumes the round: locked -> armed (or
// lobby, if the clock had already run out while the lock was held).
func (r *Room) HostIncorrect(isHost bool) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}
	if r.phase != PhaseLocked {
		return nil, ErrWrongPhase
	}

	now := r.clock.Now()
	r.lockedOutTeams[r.lockedByTeamID] = struct{}{}
	r.clearLockLocked()

	events := []protocol.OutEvent{}
	if r.remainingMs > 0 {
		r.phase = PhaseArmed
		r.timerRunning = true
		r.timerLastTickAt = now
	} else {
		r.phase = PhaseLobby
		r.timerRunning = false
		r.setTimeUpLocked(now)
		events = append(events, protocol.NewTimeUp())
	}
	r.touch(now)

	return append(events, r.roomStateEvent()), nil
}

// HostNextRound forces a full round reset from any non-terminal phase.
func (r *Room) HostNextRound(isHost bool) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	r.roundNumber++
	r.resetRoundLocked(now)
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// HostEndRound freezes the game, computing the winner(s) by max score.
func (r *Room) HostEndRound(isHost bool) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	r.clearLockLocked()
	r.timerRunning = false
	r.phase = PhaseLobby
	r.gameOver = true

	winners := r.topScoringTeamsLocked()
	if len(winners) == 1 {
		r.winnerTeamID = winners[0]
	} else {
		names := make([]string, 0, len(winners))
		for _, id := range winners {
			names = append(names, r.teams[id].Name)
		}
		r.winnerText = strings.Join(names, ", ")
	}
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// HostSetTeamCount grows the team roster to desired, appending
// default-named teams. It is a no-op when desired equals the current
// count, and rejects a decrease.
func (r *Room) HostSetTeamCount(isHost bool, desired int) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}
	if desired < minTeams || desired > maxTeams {
		return nil, ErrTeamCountRange
	}
	current := len(r.teamOrder)
	if desired < current {
		return nil, ErrTeamCountLower
	}
	if desired == current {
		return []protocol.OutEvent{}, nil
	}

	now := r.clock.Now()
	for i := current + 1; i <= desired; i++ {
		r.addTeamLocked(fmt.Sprintf("%d", i))
	}
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// HostSetDuration updates durationMs from seconds, and remainingMs too if
// the timer is not currently running.
func (r *Room) HostSetDuration(isHost bool, seconds float64) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}
	if seconds <= 0 || seconds > 600 {
		return nil, ErrDurationRange
	}

	ms := int(seconds * 1000)
	if ms < minDurationMs {
		ms = minDurationMs
	}
	if ms > maxDurationMs {
		ms = maxDurationMs
	}

	now := r.clock.Now()
	r.durationMs = ms
	if !r.timerRunning {
		r.remainingMs = ms
	}
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// HostAdjustScore applies a bounded delta to a team's score.
func (r *Room) HostAdjustScore(isHost bool, teamID string, delta int) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}
	if delta < minScoreDelta || delta > maxScoreDelta {
		return nil, ErrScoreDeltaRange
	}
	t, ok := r.teams[teamID]
	if !ok {
		return nil, ErrUnknownTeam
	}

	now := r.clock.Now()
	t.Score += delta
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// HostSetFairPlay toggles the focus-loss-locks-team policy.
func (r *Room) HostSetFairPlay(isHost bool, enabled bool) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	r.fairPlayEnabled = enabled
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// HostUnblockFocus releases one team from FairPlay's focus lock.
func (r *Room) HostUnblockFocus(isHost bool, teamID string) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, err
	}
	if _, ok := r.teams[teamID]; !ok {
		return nil, ErrUnknownTeam
	}

	now := r.clock.Now()
	delete(r.focusLockedTeams, teamID)
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// HostRemoveTeam resets a team to defaults and kicks its owning player, if
// any. It returns the kicked player's ID (empty if the team was unclaimed)
// so the session layer can detach that player's connection.
func (r *Room) HostRemoveTeam(isHost bool, teamID string) ([]protocol.OutEvent, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(isHost); err != nil {
		return nil, "", err
	}
	t, ok := r.teams[teamID]
	if !ok {
		return nil, "", ErrUnknownTeam
	}

	now := r.clock.Now()
	kickedPlayerID := r.teamTaken[teamID]
	if kickedPlayerID != "" {
		delete(r.teamTaken, teamID)
		delete(r.playerTeams, kickedPlayerID)
		r.kickedPlayers[kickedPlayerID] = struct{}{}
	}
	t.Name = defaultTeamName(teamID)
	t.Score = 0
	delete(r.teamNameLocked, teamID)
	delete(r.lockedOutTeams, teamID)
	delete(r.falseStartTeams, teamID)
	delete(r.focusLockedTeams, teamID)

	events := []protocol.OutEvent{}
	if r.lockedByTeamID == teamID {
		r.clearLockLocked()
		if r.remainingMs > 0 {
			r.phase = PhaseArmed
			r.timerRunning = true
			r.timerLastTickAt = now
		} else {
			r.phase = PhaseLobby
			r.timerRunning = false
			r.setTimeUpLocked(now)
			events = append(events, protocol.NewTimeUp())
		}
	}
	r.touch(now)

	return append(events, r.roomStateEvent()), kickedPlayerID, nil
}

func (r *Room) clearLockLocked() {
	r.lockedByPlayerID = ""
	r.lockedByTeamID = ""
}

func (r *Room) setTimeUpLocked(now time.Time) {
	t := now
	r.timeUpAt = &t
}

func (r *Room) resetRoundLocked(now time.Time) {
	r.falseStartTeams = map[string]struct{}{}
	r.focusLockedTeams = map[string]struct{}{}
	r.lockedOutTeams = map[string]struct{}{}
	r.lastBuzz = nil
	r.firstBuzzTeamID = ""
	r.clearLockLocked()
	r.remainingMs = r.durationMs
	r.timerRunning = false
	r.phase = PhaseLobby
}

func (r *Room) topScoringTeamsLocked() []string {
	best := -1
	for _, id := range r.teamOrder {
		if s := r.teams[id].Score; s > best {
			best = s
		}
	}
	winners := make([]string, 0, 1)
	for _, id := range r.teamOrder {
		if r.teams[id].Score == best {
			winners = append(winners, id)
		}
	}
	return winners
}
