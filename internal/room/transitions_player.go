package room

import (
	"strings"
	"unicode/utf8"

	"github.com/rfrankel/adabra/internal/protocol"
)

// SetTeam claims a team for a player. Once a binding exists it is immutable
// for the room's lifetime: a repeat call with the same team acks it, a
// repeat call with a different team leaves the binding unchanged and
// returns ErrNotTeamOwner.
func (r *Room) SetTeam(playerID, teamID string) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.touch(now)

	if existing, ok := r.playerTeams[playerID]; ok {
		if existing == teamID {
			return []protocol.OutEvent{protocol.NewTeamSet(existing)}, nil
		}
		return nil, ErrNotTeamOwner
	}

	if _, ok := r.teams[teamID]; !ok {
		return nil, ErrUnknownTeam
	}
	if holder, taken := r.teamTaken[teamID]; taken && holder != playerID {
		return nil, ErrTeamAlreadyTaken
	}

	r.playerTeams[playerID] = teamID
	r.teamTaken[teamID] = playerID

	return []protocol.OutEvent{protocol.NewTeamSet(teamID), r.roomStateEvent()}, nil
}

// SetTeamName renames the caller's team, once, within [2,16] cleaned
// characters, whitespace collapsed to single spaces.
func (r *Room) SetTeamName(playerID, teamID, rawName string) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bound, ok := r.playerTeams[playerID]; !ok || bound != teamID {
		return nil, ErrNotTeamOwner
	}
	if _, ok := r.teams[teamID]; !ok {
		return nil, ErrUnknownTeam
	}
	if _, locked := r.teamNameLocked[teamID]; locked {
		return nil, ErrNameAlreadySet
	}

	name := collapseWhitespace(rawName)
	if n := utf8.RuneCountInString(name); n < minTeamNameLen || n > maxTeamNameLen {
		return nil, ErrNameLength
	}

	now := r.clock.Now()
	r.teams[teamID].Name = name
	r.teamNameLocked[teamID] = struct{}{}
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// PlayerFocus reports a loss (or regain) of window focus. Losing focus
// while the round is live locks the player's team out under FairPlay.
func (r *Room) PlayerFocus(playerID string, focused bool) ([]protocol.OutEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if focused {
		return []protocol.OutEvent{}, nil
	}
	if !r.fairPlayEnabled {
		return []protocol.OutEvent{}, nil
	}
	if r.phase != PhaseArmed && r.phase != PhaseLocked {
		return []protocol.OutEvent{}, nil
	}

	teamID, ok := r.playerTeams[playerID]
	if !ok {
		return []protocol.OutEvent{}, nil
	}

	now := r.clock.Now()
	r.focusLockedTeams[teamID] = struct{}{}
	r.touch(now)

	return []protocol.OutEvent{r.roomStateEvent()}, nil
}

// Buzz is the fairness-critical path: serialized by Room.mu, so whichever
// caller's goroutine enters this method first wins, regardless of client
// timestamps.
func (r *Room) Buzz(playerID string) []protocol.OutEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.touch(now)

	if _, kicked := r.kickedPlayers[playerID]; kicked {
		return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonKicked)}
	}

	teamID, hasTeam := r.playerTeams[playerID]
	if !hasTeam {
		return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonNoTeam)}
	}

	if r.gameOver {
		return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonNotArmed)}
	}

	switch r.phase {
	case PhaseLobby:
		r.lockedOutTeams[teamID] = struct{}{}
		r.falseStartTeams[teamID] = struct{}{}
		return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonNotArmed), r.roomStateEvent()}

	case PhaseArmed:
		if _, lockedOut := r.lockedOutTeams[teamID]; lockedOut {
			return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonTeamLockedOut)}
		}
		if r.fairPlayEnabled {
			if _, focusLocked := r.focusLockedTeams[teamID]; focusLocked {
				return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonFocusLocked)}
			}
		}
		if r.remainingMs <= 0 {
			return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonTimeUp)}
		}

		r.phase = PhaseLocked
		r.lockedByPlayerID = playerID
		r.lockedByTeamID = teamID
		r.lastBuzz = &LastBuzz{By: playerID, TeamID: teamID}
		if r.firstBuzzTeamID == "" {
			r.firstBuzzTeamID = teamID
		}
		r.timerRunning = false

		return []protocol.OutEvent{protocol.NewBuzzed(teamID, r.code), r.roomStateEvent()}

	default: // PhaseLocked
		return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonNotArmed)}
	}
}

// FalseStartAttempt is treated identically to a lobby-phase buzz from a
// team-bound player, regardless of the room's actual current phase: the
// client reports a buzz it detected before the round was armed, so the
// room's own phase at the moment the report arrives is not the point.
func (r *Room) FalseStartAttempt(playerID string) []protocol.OutEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.touch(now)

	teamID, hasTeam := r.playerTeams[playerID]
	if !hasTeam {
		return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonNoTeam)}
	}
	if r.gameOver {
		return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonNotArmed)}
	}

	r.lockedOutTeams[teamID] = struct{}{}
	r.falseStartTeams[teamID] = struct{}{}

	return []protocol.OutEvent{protocol.NewBuzzRejected(protocol.ReasonNotArmed), r.roomStateEvent()}
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
