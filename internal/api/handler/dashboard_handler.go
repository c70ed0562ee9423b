package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
	"github.com/xplr/session-gateway/internal/core/service"
)

// DashboardHandler assembles the dashboard's first paint from several
// backend calls. Sections the session may not see are left out.
type DashboardHandler struct {
	sessionDeps
	backend ports.Backend
	log     zerolog.Logger
}

func NewDashboardHandler(backend ports.Backend, sessions *service.SessionService, nav *service.Navigator, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{sessionDeps: sessionDeps{sessions: sessions, nav: nav}, backend: backend, log: log}
}

type dashboardResponse struct {
	User      *ports.BackendUser `json:"user"`
	Session   sessionView        `json:"session"`
	Cards     json.RawMessage    `json:"cards,omitempty"`
	Grade     json.RawMessage    `json:"grade,omitempty"`
	Referrals json.RawMessage    `json:"referrals,omitempty"`
	Teams     json.RawMessage    `json:"teams,omitempty"`
}

// Get returns the dashboard summary.
//
// @Summary      Dashboard summary
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /v1/dashboard [get]
func (h *DashboardHandler) Get(c echo.Context) error {
	sc, err := h.open(c)
	if err != nil {
		return err
	}
	if err := require(c, sc, domain.GuardRequiresOnboarded); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.backend.CurrentUser(ctx, sc)
	if err != nil {
		return err
	}
	out := dashboardResponse{User: user}

	sections := []struct {
		name  string
		guard domain.GuardKind
		fetch func(context.Context, ports.TokenSource) (json.RawMessage, error)
		dst   *json.RawMessage
	}{
		{"cards", domain.GuardRequiresOnboarded, h.backend.Cards, &out.Cards},
		{"grade", domain.GuardRequiresOnboarded, h.backend.Grade, &out.Grade},
		{"referrals", domain.GuardRequiresOwner, h.backend.ReferralStats, &out.Referrals},
		{"teams", domain.GuardRequiresBusinessMode, h.backend.Teams, &out.Teams},
	}
	for _, s := range sections {
		if require(c, sc, s.guard) != nil {
			continue
		}
		data, err := s.fetch(ctx, sc)
		if errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		if err != nil {
			h.log.Warn().Err(err).Str("section", s.name).Msg("dashboard section unavailable")
			continue
		}
		*s.dst = data
	}

	out.Session = h.view(c, sc)
	return c.JSON(http.StatusOK, out)
}
