package handler

import (
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/xplr/session-gateway/internal/core/ports"
	"github.com/xplr/session-gateway/internal/core/service"
)

const maxProxyBody = 1 << 20

// ProxyHandler relays screen data calls to the backend with the device's
// bearer token attached.
type ProxyHandler struct {
	sessionDeps
	backend ports.Backend
}

func NewProxyHandler(backend ports.Backend, sessions *service.SessionService, nav *service.Navigator) *ProxyHandler {
	return &ProxyHandler{sessionDeps: sessionDeps{sessions: sessions, nav: nav}, backend: backend}
}

// Forward relays the request under /v1/api/ to the same path on the backend.
// The backend's status and body are returned unchanged.
//
// @Summary      Backend pass-through
// @Tags         proxy
// @Param        path  path  string  true  "Backend path"
// @Router       /v1/api/{path} [get]
func (h *ProxyHandler) Forward(c echo.Context) error {
	sc, err := h.open(c)
	if err != nil {
		return err
	}

	var body []byte
	if c.Request().Body != nil {
		body, err = io.ReadAll(io.LimitReader(c.Request().Body, maxProxyBody))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
		}
	}

	target, err := backendPath(c.Param("*"))
	if err != nil {
		return err
	}

	resp, err := h.backend.Forward(c.Request().Context(), sc, ports.ForwardRequest{
		Method:   c.Request().Method,
		Path:     target,
		RawQuery: c.Request().URL.RawQuery,
		Body:     body,
	})
	if err != nil {
		return err
	}

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Blob(resp.Status, contentType, resp.Body)
}

// backendPath turns the wildcard into a rooted, dot-free path so a forwarded
// call cannot climb above the backend's API prefix.
func backendPath(param string) (string, error) {
	p, err := url.PathUnescape(param)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid backend path")
	}
	return (&url.URL{Path: path.Clean("/" + p)}).EscapedPath(), nil
}
