package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/xplr/session-gateway/internal/api/middleware"
	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/service"
)

// sessionView is the session as the SPA sees it.
type sessionView struct {
	DeviceID     string         `json:"device_id"`
	TokenPresent bool           `json:"token_present"`
	Session      domain.Session `json:"session"`
	IsOwner      bool           `json:"is_owner"`
	IsMember     bool           `json:"is_member"`
	// Next is where navigating to the root would land right now.
	Next string `json:"next"`
}

// sessionDeps bundles what every session-aware handler needs.
type sessionDeps struct {
	sessions *service.SessionService
	nav      *service.Navigator
}

func (d sessionDeps) open(c echo.Context) (*service.SessionContext, error) {
	return middleware.OpenSession(c, d.sessions)
}

func (d sessionDeps) view(c echo.Context, sc *service.SessionContext) sessionView {
	ctx := c.Request().Context()
	s := sc.Session()
	return sessionView{
		DeviceID:     sc.DeviceID(),
		TokenPresent: sc.TokenPresent(ctx),
		Session:      s,
		IsOwner:      s.IsOwner(),
		IsMember:     s.IsMember(),
		Next:         d.nav.Resolve(ctx, sc, domain.PathRoot).Final,
	}
}

// require evaluates kind for the current session and converts a denial
// into an API error.
func require(c echo.Context, sc *service.SessionContext, kind domain.GuardKind) error {
	return domain.Evaluate(kind, sc.TokenPresent(c.Request().Context()), sc.Session()).Err()
}
