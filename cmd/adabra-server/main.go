package main

import (
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/rfrankel/adabra/internal/config"
	"github.com/rfrankel/adabra/internal/logging"
	"github.com/rfrankel/adabra/internal/registry"
	"github.com/rfrankel/adabra/internal/room"
	"github.com/rfrankel/adabra/internal/roomcode"
	"github.com/rfrankel/adabra/internal/session"
	"github.com/rfrankel/adabra/internal/timerservice"
)

// newServer builds the gin engine with ADABRA's origin check and CORS
// middleware, the two-layer shape main.go's CreateServer uses: a custom
// origin gate that aborts mismatches outright, then gin-contrib/cors for
// the headers a browser actually inspects.
func newServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	allowAll := slices.Contains(allowedOrigins, "*")
	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if allowAll || origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg := config.Load()
	logging.Init(cfg.GinMode != "release")
	gin.SetMode(cfg.GinMode)

	clock := room.SystemClock{}
	codes := roomcode.NewGenerator()
	hub := session.NewHub()
	reg := registry.New(clock, codes, hub, cfg.IdleTimeout, cfg.EmptyTimeout)

	stop := make(chan struct{})

	svc := timerservice.New(timerservice.RealTicker{}, cfg.TickInterval, reg)
	go svc.Run(stop)
	go reg.RunReaper(cfg.ReaperInterval, clock, stop)

	router := session.NewRouter(reg, hub)
	handler := session.NewHandler(reg, router)

	srv := newServer(cfg.AllowedOrigins)
	srv.Static("/static", cfg.StaticDir)
	srv.StaticFile("/", cfg.StaticDir+"/index.html")
	srv.StaticFile("/host", cfg.StaticDir+"/host.html")
	srv.StaticFile("/play", cfg.StaticDir+"/play.html")
	srv.StaticFile("/screen", cfg.StaticDir+"/screen.html")

	api := srv.Group("/api")
	api.GET("/rooms/create", handler.CreateRoomHandler)
	api.GET("/ws", handler.ConnectHandler)

	log.Info().Str("addr", cfg.Addr).Msg("starting adabra server")
	go func() {
		if err := srv.Run(cfg.Addr); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Info().Msg("shutting down")
	close(stop)
	time.Sleep(100 * time.Millisecond)
}
