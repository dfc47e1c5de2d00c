package handler

import (
	"pdf-assistant-be/internal/pkg/logger"
	"pdf-assistant-be/internal/pkg/serverutils"
	"pdf-assistant-be/internal/repository/memory"
	internalWS "pdf-assistant-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SessionEventHandler upgrades presentation clients onto the event stream of
// one session. The session id in the path is the only credential; there are
// no user accounts.
type SessionEventHandler struct {
	sessions *memory.SessionRepository
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewSessionEventHandler(sessions *memory.SessionRepository, hub *internalWS.Hub, log logger.ILogger) *SessionEventHandler {
	return &SessionEventHandler{
		sessions: sessions,
		hub:      hub,
		logger:   log,
	}
}

func (h *SessionEventHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/session/v1/:id/events", h.upgrade, websocket.New(h.serveWs))
}

func (h *SessionEventHandler) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	if _, ok := h.sessions.Get(ctx.Params("id")); !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "session not found"))
	}
	return ctx.Next()
}

func (h *SessionEventHandler) serveWs(conn *websocket.Conn) {
	sessionID := conn.Params("id")
	client := internalWS.NewClient(h.hub, conn, sessionID)
	h.logger.Info("SessionEventHandler", "Event stream opened", map[string]interface{}{"session_id": sessionID})
	h.hub.Attach(client)
}
