package protocol

// Outbound event names.
const (
	EventJoinedRoom   = "joinedRoom"
	EventTeamSet      = "teamSet"
	EventRoomState    = "roomState"
	EventBeep         = "beep"
	EventBuzzed       = "buzzed"
	EventBuzzRejected = "buzzRejected"
	EventTimeUp       = "timeUp"
	EventCorrectFx    = "correctFx"
	EventKicked       = "kicked"
	EventErrorMsg     = "errorMsg"
)

// Rejection reasons for a buzz.
const (
	ReasonNoTeam        = "NO_TEAM"
	ReasonNotArmed      = "NOT_ARMED"
	ReasonTimeUp        = "TIME_UP"
	ReasonTeamLockedOut = "TEAM_LOCKED_OUT"
	ReasonFocusLocked   = "FOCUS_LOCKED"
	ReasonKicked        = "KICKED"
)

// ReasonRemovedByHost is the kicked event's reason, distinct from
// ReasonKicked above, which is a buzzRejected reason for a kicked player who
// still attempts a buzz before detaching.
const ReasonRemovedByHost = "REMOVED_BY_HOST"

// OutEvent is the outer shape of every outbound message: an event name and
// its payload, mirroring domain/protobuf/helpers.go's MakePacketXxx
// factories but built around a JSON-tagged struct instead of a protobuf
// oneof.
type OutEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type JoinedRoomData struct {
	RoomCode string `json:"roomCode"`
	IsHost   bool   `json:"isHost"`
}

type TeamSetData struct {
	TeamID string `json:"teamId"`
	Locked bool   `json:"locked"`
}

type BuzzedData struct {
	TeamID   string `json:"teamId"`
	RoomCode string `json:"roomCode"`
}

type BuzzRejectedData struct {
	Reason string `json:"reason"`
}

type CorrectFxData struct {
	TeamID string `json:"teamId"`
}

type KickedData struct {
	RoomCode string `json:"roomCode"`
	Reason   string `json:"reason"`
}

type ErrorMsgData struct {
	Message string `json:"message"`
}

// NewJoinedRoom builds the ack sent in response to a successful joinRoom.
func NewJoinedRoom(roomCode string, isHost bool) OutEvent {
	return OutEvent{Event: EventJoinedRoom, Data: JoinedRoomData{RoomCode: roomCode, IsHost: isHost}}
}

// NewTeamSet builds the event confirming or restoring team ownership.
func NewTeamSet(teamID string) OutEvent {
	return OutEvent{Event: EventTeamSet, Data: TeamSetData{TeamID: teamID, Locked: true}}
}

// NewRoomState builds the full public snapshot broadcast after every
// mutating transition. view is expected to be a room.PublicView, kept as
// `any` here to avoid an import cycle between protocol and room.
func NewRoomState(view any) OutEvent {
	return OutEvent{Event: EventRoomState, Data: view}
}

// NewBeep builds the transient cue fired at hostBeepStart.
func NewBeep() OutEvent {
	return OutEvent{Event: EventBeep}
}

// NewBuzzed builds the transient cue fired the instant a buzz is accepted.
func NewBuzzed(teamID, roomCode string) OutEvent {
	return OutEvent{Event: EventBuzzed, Data: BuzzedData{TeamID: teamID, RoomCode: roomCode}}
}

// NewBuzzRejected builds the reply to an invalid buzz attempt.
func NewBuzzRejected(reason string) OutEvent {
	return OutEvent{Event: EventBuzzRejected, Data: BuzzRejectedData{Reason: reason}}
}

// NewTimeUp builds the transient cue fired when the round clock expires.
func NewTimeUp() OutEvent {
	return OutEvent{Event: EventTimeUp}
}

// NewCorrectFx builds the celebration cue fired on hostCorrect.
func NewCorrectFx(teamID string) OutEvent {
	return OutEvent{Event: EventCorrectFx, Data: CorrectFxData{TeamID: teamID}}
}

// NewKicked builds the event that tells a removed player to detach.
func NewKicked(roomCode, reason string) OutEvent {
	return OutEvent{Event: EventKicked, Data: KickedData{RoomCode: roomCode, Reason: reason}}
}

// NewErrorMsg builds a recoverable command error reply.
func NewErrorMsg(message string) OutEvent {
	return OutEvent{Event: EventErrorMsg, Data: ErrorMsgData{Message: message}}
}
