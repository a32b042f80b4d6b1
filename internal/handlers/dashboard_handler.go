package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/streamify/backend/internal/dashboard"
	"github.com/labstack/echo/v4"
)

// DashboardSource builds a user's dashboard snapshot
type DashboardSource interface {
	GetDashboardData(ctx context.Context, userID string) (*dashboard.Snapshot, error)
}

type DashboardHandler struct {
	source DashboardSource
}

func NewDashboardHandler(source DashboardSource) *DashboardHandler {
	return &DashboardHandler{source: source}
}

func (h *DashboardHandler) RegisterDashboardRoutes(g *echo.Group) {
	g.GET("/dashboard", h.GetDashboard)
}

// GetDashboard returns the caller's channel dashboard
func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	snapshot, err := h.source.GetDashboardData(c.Request().Context(), userID.Hex())
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, snapshot)
}
