package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xplr/session-gateway/internal/api/metrics"
	"github.com/xplr/session-gateway/internal/core/service"
)

// SessionKey is the echo context key holding the opened *service.SessionContext.
const SessionKey = "session"

// ScreenGuard runs the navigation guard for the requested screen. A denied
// navigation is replaced by a redirect to the screen the user ends up on;
// no error is rendered.
func ScreenGuard(sessions *service.SessionService, nav *service.Navigator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sc, err := OpenSession(c, sessions)
			if err != nil {
				return err
			}

			res := nav.Resolve(c.Request().Context(), sc, c.Request().URL.Path)
			metrics.ObserveNavigation(res.Guard, res.Decision.Allowed, res.Decision.RedirectTo)
			if res.Redirected() {
				return c.Redirect(http.StatusFound, res.Final)
			}
			return next(c)
		}
	}
}

// OpenSession returns the session context for the request's device,
// opening it on first use.
func OpenSession(c echo.Context, sessions *service.SessionService) (*service.SessionContext, error) {
	if sc, ok := c.Get(SessionKey).(*service.SessionContext); ok {
		return sc, nil
	}
	deviceID, _ := c.Get(DeviceIDKey).(string)
	if deviceID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "missing device identity")
	}
	sc, err := sessions.Open(c.Request().Context(), deviceID)
	if err != nil {
		return nil, err
	}
	c.Set(SessionKey, sc)
	return sc, nil
}
