package room

import "errors"

// Sentinel errors for command-validation failures, grounded on game/errors.go
// and domain/errors.go's declared-var-block idiom. The session layer
// translates these into errorMsg/buzzRejected wire events. They never
// reach a client as a raw Go error.
var (
	ErrNotHost          = errors.New("room: command requires host")
	ErrGameOver         = errors.New("room: game is over, create a new room")
	ErrWrongPhase       = errors.New("room: command not valid in current phase")
	ErrUnknownTeam      = errors.New("room: unknown team")
	ErrTeamCountLower   = errors.New("room: team count cannot decrease")
	ErrTeamCountRange   = errors.New("room: team count must be between 2 and 6")
	ErrDurationRange    = errors.New("room: duration must be between 0 (exclusive) and 600 seconds")
	ErrScoreDeltaRange  = errors.New("room: score delta must be between -100 and 100")
	ErrNameLength       = errors.New("room: team name must be between 2 and 16 characters")
	ErrNameAlreadySet   = errors.New("room: team name already changed once")
	ErrNotTeamOwner     = errors.New("room: player does not own this team")
	ErrTeamAlreadyTaken = errors.New("room: team already claimed by another player")
)
