package session

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rfrankel/adabra/internal/protocol"
)

// Dispatcher is the callback a transport-agnostic ReadPump hands each
// decoded inbound frame to. dispatch.go's Router is the concrete
// implementation, wired to a Registry and Hub and handed to ReadPump by
// handlers.go.
type Dispatcher interface {
	Dispatch(s *Session, envelope protocol.InEnvelope)
	Disconnect(s *Session)
}

// ReadPump reads frames off the connection until it errs or closes,
// decoding each as a protocol.InEnvelope and handing it to d. It mirrors the
// shape of game/player_actor.go's ReadPump, substituting a JSON envelope
// decode for game/player_actor.go's protowire tag sniff.
func (s *Session) ReadPump(d Dispatcher) {
	defer func() {
		d.Disconnect(s)
		s.Close()
	}()

	for {
		data, err := s.conn.Read()
		if err != nil {
			return
		}
		if !s.limiter.Allow() {
			s.enqueue(protocol.NewErrorMsg("rate limit exceeded"))
			continue
		}

		var envelope protocol.InEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			s.enqueue(protocol.NewErrorMsg("malformed message"))
			continue
		}
		d.Dispatch(s, envelope)
	}
}

// WritePump drains the session's send queue to the connection and pings on
// a fixed cadence, the same select-loop shape as
// game/player_actor.go's WritePump.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.conn.Close()

	for {
		select {
		case evt, ok := <-s.send:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				log.Error().Err(err).Str("event", evt.Event).Msg("failed to marshal outbound event")
				continue
			}
			if err := s.conn.Write(data); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				return
			}
		case <-s.closeCh:
			s.drainPending()
			return
		}
	}
}

// drainPending flushes whatever is left in the send buffer (e.g. a final
// kicked event) before the connection closes.
func (s *Session) drainPending() {
	for {
		select {
		case evt, ok := <-s.send:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			s.conn.Write(data)
		default:
			return
		}
	}
}
