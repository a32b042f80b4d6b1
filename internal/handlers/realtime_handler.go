package handlers

import (
	"log/slog"

	"github.com/anonto42/streamify/backend/internal/realtime"
	"github.com/labstack/echo/v4"
)

// RealtimeHandler upgrades authenticated clients to a websocket on their own user topic
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// RegisterRealtimeRoutes mounts the websocket behind auth, normally JWTQueryAuthMiddleware
// since browsers cannot set headers on a websocket handshake.
func (h *RealtimeHandler) RegisterRealtimeRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/realtime", h.Connect, auth)
}

func (h *RealtimeHandler) Connect(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.hub.ServeWS(c.Response(), c.Request(), userID.Hex()); err != nil {
		slog.Warn("Websocket upgrade failed", "user_id", userID.Hex(), "error", err)
	}
	return nil
}
