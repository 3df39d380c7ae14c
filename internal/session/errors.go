package session

import "errors"

// Dispatch-level errors, distinct from internal/room's command-validation
// errors: these are protocol-framing and routing failures rather than
// game-rule violations.
var (
	errNotJoined      = errors.New("session: must send joinRoom before any other command")
	errMalformed      = errors.New("session: malformed payload")
	errUnknownCommand = errors.New("session: unknown command")
)

func errRoomNotExist(code string) error {
	return errors.New("room " + code + " does not exist")
}
