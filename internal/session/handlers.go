package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/rfrankel/adabra/internal/room"
)

// RoomCreator is the slice of Registry the HTTP layer needs to mint a new
// room before handing the caller its host key.
type RoomCreator interface {
	RoomLookup
	CreateRoom() (*room.Room, error)
}

// Handler exposes ADABRA's HTTP surface: creating a room and upgrading to
// the websocket session, grounded on game/handlers.go's GameHanler.
type Handler struct {
	rooms    RoomCreator
	router   *Router
	upgrader websocket.Upgrader
}

// NewHandler builds a Handler wired to the registry and a shared Router.
func NewHandler(rooms RoomCreator, router *Router) *Handler {
	return &Handler{
		rooms:  rooms,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// CreateRoomHandler mints a new room and returns its code and host key. The
// host key is returned exactly once, in this response, and never again.
func (h *Handler) CreateRoomHandler(ctx *gin.Context) {
	r, err := h.rooms.CreateRoom()
	if err != nil {
		log.Error().Err(err).Msg("failed to create room")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could-not-create-room"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"roomCode": r.Code(),
		"hostKey":  r.HostKey(),
	})
}

// ConnectHandler upgrades the request to a websocket and runs the session's
// read/write pumps until disconnect, mirroring game/handlers.go's
// CreateRoomHandler upgrade-then-spawn shape.
func (h *Handler) ConnectHandler(ctx *gin.Context) {
	socket, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := NewConn(socket)
	s := NewSession(conn)

	go s.WritePump()
	s.ReadPump(h.router)
}
