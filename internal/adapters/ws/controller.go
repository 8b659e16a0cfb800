package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/concord-chat/concord/internal/app"
	"github.com/concord-chat/concord/internal/config"
	"github.com/concord-chat/concord/internal/domain"
)

type handlerFunc func(ctx context.Context, conn *Conn, data json.RawMessage)

// Controller owns the websocket surface: upgrade, pumps and the
// dispatch table. Each connection's events run strictly in arrival
// order on its own read pump; nothing here holds an app lock across
// store I/O.
type Controller struct {
	Coord    *app.Coordinator
	Cfg      *config.Config
	validate *validator.Validate
	handlers map[string]handlerFunc
}

func NewController(coord *app.Coordinator, cfg *config.Config) *Controller {
	ctl := &Controller{
		Coord:    coord,
		Cfg:      cfg,
		validate: validator.New(),
	}
	// One entry per inbound event; nothing else mutates session state.
	ctl.handlers = map[string]handlerFunc{
		"join:servers":         ctl.handleJoinServers,
		"channel:join":         ctl.handleChannelJoin,
		"channel:leave":        ctl.handleChannelLeave,
		"message:send":         ctl.handleMessageSend,
		"typing:start":         ctl.handleTypingStart,
		"typing:stop":          ctl.handleTypingStop,
		"voice:join":           ctl.handleVoiceJoin,
		"voice:leave":          ctl.handleVoiceLeave,
		"webrtc:offer":         ctl.handleOffer,
		"webrtc:answer":        ctl.handleAnswer,
		"webrtc:ice-candidate": ctl.handleCandidate,
		"status:update":        ctl.handleStatusUpdate,
		"dm:send":              ctl.handleDMSend,
	}
	return ctl
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades an authenticated request and runs the connection
// until transport close. The identity was verified by the router
// middleware; no handler runs without it.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	val, ok := c.Get("identity")
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	identity := val.(domain.Identity)

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("upgrade failed")
		return
	}

	conn := newConn(identity, sock, ctl.Cfg.SendBuffer)
	log.Info().Str("module", "ws").Str("user", string(identity.ID)).Str("username", identity.Username).Str("conn", string(conn.ID())).Msg("✅ user connected")

	ctx, cancel := context.WithCancel(ctx)
	ctl.Coord.OnConnect(ctx, conn)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}

func (ctl *Controller) teardown(cancel context.CancelFunc, conn *Conn) {
	cancel()
	conn.Close()
	// The connection context is gone; teardown persistence gets its
	// own bounded one.
	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	ctl.Coord.OnDisconnect(ctx, conn)
	log.Info().Str("module", "ws").Str("user", string(conn.Identity().ID)).Msg("❌ user disconnected")
}

func (ctl *Controller) dispatch(ctx context.Context, conn *Conn, data []byte) {
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("bad frame")
		return
	}
	h, ok := ctl.handlers[env.Event]
	if !ok {
		log.Warn().Str("module", "ws").Str("event", env.Event).Msg("unknown event")
		return
	}
	h(ctx, conn, env.Data)
}
