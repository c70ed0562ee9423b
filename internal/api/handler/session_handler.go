package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xplr/session-gateway/internal/api/metrics"
	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
	"github.com/xplr/session-gateway/internal/core/service"
)

const defaultEventsLimit = 20

// SessionHandler exposes the device session: read, onboarding, mode and logout.
type SessionHandler struct {
	sessionDeps
	audit ports.AuditRepository
}

// NewSessionHandler returns a SessionHandler. audit may be nil when the
// audit trail is disabled.
func NewSessionHandler(sessions *service.SessionService, nav *service.Navigator, audit ports.AuditRepository) *SessionHandler {
	return &SessionHandler{sessionDeps: sessionDeps{sessions: sessions, nav: nav}, audit: audit}
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required,mode"`
}

// Get returns the current session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionView
// @Router       /v1/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	sc, err := h.open(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.view(c, sc))
}

// CompleteOnboarding stores the chosen mode and marks onboarding done.
//
// @Summary      Complete onboarding
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      modeRequest  true  "Chosen mode"
// @Success      200   {object}  sessionView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/session/onboarding [post]
func (h *SessionHandler) CompleteOnboarding(c echo.Context) error {
	var req modeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sc, err := h.open(c)
	if err != nil {
		return err
	}
	if err := require(c, sc, domain.GuardRequiresToken); err != nil {
		return err
	}

	err = sc.CompleteOnboarding(c.Request().Context(), domain.Mode(req.Mode))
	metrics.ObserveMutation("onboarding", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.view(c, sc))
}

// SetMode switches between personal and business mode.
//
// @Summary      Set user mode
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      modeRequest  true  "New mode"
// @Success      200   {object}  sessionView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/session/mode [put]
func (h *SessionHandler) SetMode(c echo.Context) error {
	var req modeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sc, err := h.open(c)
	if err != nil {
		return err
	}
	if err := require(c, sc, domain.GuardRequiresToken); err != nil {
		return err
	}

	err = sc.SetUserMode(c.Request().Context(), domain.Mode(req.Mode))
	metrics.ObserveMutation("set_mode", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.view(c, sc))
}

// ToggleMode flips the current mode.
//
// @Summary      Toggle user mode
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionView
// @Failure      401  {object}  map[string]string
// @Router       /v1/session/mode/toggle [post]
func (h *SessionHandler) ToggleMode(c echo.Context) error {
	sc, err := h.open(c)
	if err != nil {
		return err
	}
	if err := require(c, sc, domain.GuardRequiresToken); err != nil {
		return err
	}

	err = sc.ToggleMode(c.Request().Context())
	metrics.ObserveMutation("toggle_mode", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.view(c, sc))
}

// Logout drops the token and session flags of this device.
//
// @Summary      Logout
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionView
// @Router       /v1/session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	sc, err := h.open(c)
	if err != nil {
		return err
	}

	err = sc.Logout(c.Request().Context())
	metrics.ObserveMutation("logout", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.view(c, sc))
}

// Events lists recent session events of this device.
//
// @Summary      Session audit trail
// @Tags         session
// @Produce      json
// @Param        limit  query     int  false  "Max events (default 20, max 100)"
// @Success      200    {array}   domain.SessionEvent
// @Failure      404    {object}  map[string]string
// @Router       /v1/session/events [get]
func (h *SessionHandler) Events(c echo.Context) error {
	if h.audit == nil {
		return echo.NewHTTPError(http.StatusNotFound, "audit trail disabled")
	}
	sc, err := h.open(c)
	if err != nil {
		return err
	}

	limit := defaultEventsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	events, err := h.audit.ListByDevice(c.Request().Context(), sc.DeviceID(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}
