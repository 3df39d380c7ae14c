package session

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rfrankel/adabra/internal/protocol"
	"github.com/rfrankel/adabra/internal/room"
)

// RoomLookup is the slice of Registry the dispatcher needs: find a room by
// code. Rooms are created over HTTP, never by the dispatcher.
type RoomLookup interface {
	GetRoom(code string) (*room.Room, bool)
}

// Router implements Dispatcher: it validates role and ownership against
// each command's authority requirement, invokes the matching Room
// transition, and fans the resulting events out through a Hub. This
// generalizes game/service.go's command switch from protobuf oneofs to the
// JSON envelope of protocol.InEnvelope.
type Router struct {
	rooms RoomLookup
	hub   *Hub
}

// NewRouter builds a Router wired to a room lookup and broadcast hub.
func NewRouter(rooms RoomLookup, hub *Hub) *Router {
	return &Router{rooms: rooms, hub: hub}
}

// unicastEvents are replies meaningful only to the connection that issued
// the command; everything else is broadcast to the whole room, since after
// any mutating transition the Session Layer emits the full public view of
// the room to every subscriber.
var unicastEvents = map[string]struct{}{
	protocol.EventJoinedRoom:   {},
	protocol.EventTeamSet:      {},
	protocol.EventBuzzRejected: {},
	protocol.EventErrorMsg:     {},
}

// deliver routes each event in events to its correct audience: unicast
// replies go only to the issuing session, everything else broadcasts to the
// whole room.
func (rt *Router) deliver(s *Session, roomCode string, events []protocol.OutEvent) {
	var unicast, broadcast []protocol.OutEvent
	for _, evt := range events {
		if _, ok := unicastEvents[evt.Event]; ok {
			unicast = append(unicast, evt)
		} else {
			broadcast = append(broadcast, evt)
		}
	}
	if len(unicast) > 0 {
		rt.hub.SendTo(s, unicast)
	}
	if len(broadcast) > 0 {
		rt.hub.Broadcast(roomCode, broadcast)
	}
}

func (rt *Router) fail(s *Session, err error) {
	rt.hub.SendTo(s, []protocol.OutEvent{protocol.NewErrorMsg(err.Error())})
}

// rejectKicked answers a join or rejoin from a removed player with kicked
// rather than errorMsg, then detaches the connection.
func (rt *Router) rejectKicked(s *Session, roomCode string) {
	rt.hub.SendTo(s, []protocol.OutEvent{protocol.NewKicked(roomCode, protocol.ReasonRemovedByHost)})
	s.Close()
}

// Dispatch decodes envelope's payload for its event and applies it.
func (rt *Router) Dispatch(s *Session, envelope protocol.InEnvelope) {
	if envelope.Event == protocol.EventJoinRoom {
		rt.handleJoinRoom(s, envelope.Payload)
		return
	}
	if envelope.Event == protocol.EventRejoinRoom {
		rt.handleRejoinRoom(s, envelope.Payload)
		return
	}

	r := s.Room()
	if r == nil {
		rt.fail(s, errNotJoined)
		return
	}

	switch envelope.Event {
	case protocol.EventSetTeam:
		var p protocol.SetTeamPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			rt.fail(s, errMalformed)
			return
		}
		events, err := r.SetTeam(s.PlayerID(), p.TeamID)
		rt.finish(s, r, events, err)

	case protocol.EventSetTeamName:
		var p protocol.SetTeamNamePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			rt.fail(s, errMalformed)
			return
		}
		events, err := r.SetTeamName(s.PlayerID(), p.TeamID, p.Name)
		rt.finish(s, r, events, err)

	case protocol.EventPlayerFocus:
		var p protocol.PlayerFocusPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			rt.fail(s, errMalformed)
			return
		}
		events, err := r.PlayerFocus(s.PlayerID(), p.Focused)
		rt.finish(s, r, events, err)

	case protocol.EventBuzz:
		events := r.Buzz(s.PlayerID())
		rt.deliver(s, r.Code(), events)

	case protocol.EventFalseStartAttempt:
		events := r.FalseStartAttempt(s.PlayerID())
		rt.deliver(s, r.Code(), events)

	case protocol.EventHostBeepStart:
		events, err := r.HostBeepStart(s.IsHost())
		rt.finish(s, r, events, err)

	case protocol.EventHostPauseTimer:
		events, err := r.HostPauseTimer(s.IsHost())
		rt.finish(s, r, events, err)

	case protocol.EventHostCorrect:
		events, err := r.HostCorrect(s.IsHost())
		rt.finish(s, r, events, err)

	case protocol.EventHostIncorrect:
		events, err := r.HostIncorrect(s.IsHost())
		rt.finish(s, r, events, err)

	case protocol.EventHostNextRound:
		events, err := r.HostNextRound(s.IsHost())
		rt.finish(s, r, events, err)

	case protocol.EventHostEndRound:
		events, err := r.HostEndRound(s.IsHost())
		rt.finish(s, r, events, err)

	case protocol.EventHostSetTeamCount:
		var p protocol.HostSetTeamCountPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			rt.fail(s, errMalformed)
			return
		}
		events, err := r.HostSetTeamCount(s.IsHost(), p.Count)
		rt.finish(s, r, events, err)

	case protocol.EventHostSetDuration:
		var p protocol.HostSetDurationPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			rt.fail(s, errMalformed)
			return
		}
		events, err := r.HostSetDuration(s.IsHost(), p.Seconds)
		rt.finish(s, r, events, err)

	case protocol.EventHostAdjustScore:
		var p protocol.HostAdjustScorePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			rt.fail(s, errMalformed)
			return
		}
		events, err := r.HostAdjustScore(s.IsHost(), p.TeamID, p.Delta)
		rt.finish(s, r, events, err)

	case protocol.EventHostSetFairPlay:
		var p protocol.HostSetFairPlayPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			rt.fail(s, errMalformed)
			return
		}
		events, err := r.HostSetFairPlay(s.IsHost(), p.Enabled)
		rt.finish(s, r, events, err)

	case protocol.EventHostUnblockFocus:
		var p protocol.HostUnblockFocusPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			rt.fail(s, errMalformed)
			return
		}
		events, err := r.HostUnblockFocus(s.IsHost(), p.TeamID)
		rt.finish(s, r, events, err)

	case protocol.EventHostRemoveTeam:
		var p protocol.HostRemoveTeamPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			rt.fail(s, errMalformed)
			return
		}
		events, kickedPlayerID, err := r.HostRemoveTeam(s.IsHost(), p.TeamID)
		if err != nil {
			rt.fail(s, err)
			return
		}
		rt.deliver(s, r.Code(), events)
		if kickedPlayerID != "" {
			rt.hub.Kick(r.Code(), kickedPlayerID, protocol.ReasonRemovedByHost)
		}

	default:
		rt.fail(s, errUnknownCommand)
	}
}

func (rt *Router) finish(s *Session, r *room.Room, events []protocol.OutEvent, err error) {
	if err != nil {
		rt.fail(s, err)
		return
	}
	rt.deliver(s, r.Code(), events)
}

func (rt *Router) handleJoinRoom(s *Session, payload json.RawMessage) {
	var p protocol.JoinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		rt.fail(s, errMalformed)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(p.RoomCode))
	r, ok := rt.rooms.GetRoom(code)
	if !ok {
		rt.fail(s, errRoomNotExist(code))
		return
	}

	isHost := p.HostKey != "" && r.IsHost(p.HostKey)
	playerID := p.PlayerID
	if !isHost && playerID == "" {
		playerID = s.ID()
	}
	if !isHost && r.IsKicked(playerID) {
		rt.rejectKicked(s, code)
		return
	}

	s.attach(r, isHost, playerID)
	rt.hub.Subscribe(r.Code(), s)
	r.Join()

	rt.hub.SendTo(s, []protocol.OutEvent{protocol.NewJoinedRoom(r.Code(), isHost)})
	rt.reemitTeamIfBound(s, r, playerID)
	rt.hub.SendTo(s, []protocol.OutEvent{protocol.NewRoomState(r.Snapshot())})

	log.Info().Str("room", r.Code()).Str("player", playerID).Bool("host", isHost).Msg("joined room")
}

func (rt *Router) handleRejoinRoom(s *Session, payload json.RawMessage) {
	var p protocol.RejoinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		rt.fail(s, errMalformed)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(p.RoomCode))
	r, ok := rt.rooms.GetRoom(code)
	if !ok {
		rt.fail(s, errRoomNotExist(code))
		return
	}
	if r.IsKicked(p.PlayerID) {
		rt.rejectKicked(s, code)
		return
	}

	s.attach(r, false, p.PlayerID)
	rt.hub.Subscribe(r.Code(), s)
	r.Join()

	rt.hub.SendTo(s, []protocol.OutEvent{protocol.NewJoinedRoom(r.Code(), false)})
	rt.reemitTeamIfBound(s, r, p.PlayerID)
	rt.hub.SendTo(s, []protocol.OutEvent{protocol.NewRoomState(r.Snapshot())})
}

// reemitTeamIfBound re-sends teamSet for a player who already owns a team
// from a prior connection, so a refreshing client recovers its team binding
// without resending setTeam.
func (rt *Router) reemitTeamIfBound(s *Session, r *room.Room, playerID string) {
	teamID, ok := r.TeamForPlayer(playerID)
	if !ok {
		return
	}
	rt.hub.SendTo(s, []protocol.OutEvent{protocol.NewTeamSet(teamID)})
}

// Disconnect detaches s from its room, if any, on connection loss.
func (rt *Router) Disconnect(s *Session) {
	r := s.Room()
	if r == nil {
		return
	}
	r.Leave()
	rt.hub.Unsubscribe(r.Code(), s)
}
