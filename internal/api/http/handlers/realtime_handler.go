package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/auth"
	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/hub"
	"github.com/chatdesk-dev/chat-desk/internal/realtime"
)

const (
	wsIdentityKey = "ws_identity"
	wsWriteWait   = 10 * time.Second
	wsPongWait    = 60 * time.Second
	wsPingPeriod  = 25 * time.Second
)

// RealtimeHandler upgrades /ws and relays room frames to the connection.
type RealtimeHandler struct {
	auth   *auth.AuthMiddleware
	hub    *hub.Hub
	logger *zap.Logger
}

// NewRealtimeHandler builds handler.
func NewRealtimeHandler(authMiddleware *auth.AuthMiddleware, h *hub.Hub, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{auth: authMiddleware, hub: h, logger: logger}
}

// Upgrade authenticates the token query parameter before the handshake.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	principal, err := h.auth.Authenticate(c.UserContext(), c.Query("token"))
	if err != nil {
		return err
	}
	c.Locals(wsIdentityKey, principal.Identity)
	return c.Next()
}

// Serve is the websocket handler.
func (h *RealtimeHandler) Serve() fiber.Handler {
	return websocket.New(h.serve)
}

func (h *RealtimeHandler) serve(conn *websocket.Conn) {
	identity, ok := conn.Locals(wsIdentityKey).(domain.Identity)
	if !ok {
		_ = conn.Close()
		return
	}
	client := h.hub.Register(identity)
	logger := h.logger.With(zap.String("client_id", client.ID), zap.String("user_id", identity.UserID.String()))
	logger.Debug("websocket connected")

	done := make(chan struct{})
	go h.writeLoop(conn, client, done)

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var frame realtime.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			logger.Debug("ignoring malformed frame", zap.Error(err))
			continue
		}
		if frame.Event != realtime.EventJoin {
			continue
		}
		var join realtime.JoinData
		if err := json.Unmarshal(frame.Data, &join); err != nil {
			continue
		}
		if err := h.hub.Join(client, join.Room); err != nil {
			logger.Warn("join refused", zap.String("room", join.Room))
			continue
		}
		logger.Debug("joined room", zap.String("room", join.Room))
	}

	h.hub.Unregister(client)
	<-done
	_ = conn.Close()
	logger.Debug("websocket disconnected")
}

// writeLoop owns all writes on conn.
func (h *RealtimeHandler) writeLoop(conn *websocket.Conn, client *hub.Client, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-client.Send():
			if !ok {
				// Unregistered, possibly by the hub for lagging behind.
				_ = conn.Close()
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				// Unblock the reader; it unregisters the client.
				_ = conn.Close()
				drain(client)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				drain(client)
				return
			}
		}
	}
}

func drain(client *hub.Client) {
	for range client.Send() {
	}
}
