package session

import (
	"time"

	"github.com/gorilla/websocket"
)

// writeWait, pongWait, and pingPeriod mirror game/websocket.go's deadlines:
// a generous read deadline refreshed by pongs, and a ping cadence comfortably
// inside it.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Conn abstracts one client connection down to the four operations the read
// and write pumps need, the same seam game/websocket.go's WebsocketConnection
// provides so tests can substitute a fake instead of a real socket.
type Conn interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Ping() error
	Close()
}

// wsConn adapts a gorilla websocket connection to Conn. ADABRA exchanges
// JSON text frames rather than game/websocket.go's protobuf binary frames.
type wsConn struct {
	socket *websocket.Conn
}

// NewConn wraps an upgraded websocket connection, wiring the pong handler to
// refresh the read deadline the way game/websocket.go's NewWebsocketConnection
// does.
func NewConn(socket *websocket.Conn) Conn {
	socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &wsConn{socket: socket}
}

func (c *wsConn) Read() ([]byte, error) {
	_, p, err := c.socket.ReadMessage()
	return p, err
}

func (c *wsConn) Write(data []byte) error {
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Ping() error {
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteMessage(websocket.PingMessage, nil)
}

func (c *wsConn) Close() {
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.socket.Close()
}
