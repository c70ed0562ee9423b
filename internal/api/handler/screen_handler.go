package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/xplr/session-gateway/internal/api/middleware"
	"github.com/xplr/session-gateway/internal/core/domain"
)

// ScreenHandler renders a screen that the screen guard has allowed. With
// a built SPA configured it serves index.html; otherwise it reports the
// screen as JSON, which is enough for API-only deployments and tests.
type ScreenHandler struct {
	index string
}

// NewScreenHandler serves spaDir/index.html when spaDir is set.
func NewScreenHandler(spaDir string) *ScreenHandler {
	h := &ScreenHandler{}
	if spaDir != "" {
		h.index = filepath.Join(spaDir, "index.html")
	}
	return h
}

type screenResponse struct {
	Screen   string `json:"screen"`
	DeviceID string `json:"device_id"`
}

func (h *ScreenHandler) Serve(c echo.Context) error {
	if h.index != "" {
		if _, err := os.Stat(h.index); err == nil {
			return c.File(h.index)
		}
	}
	deviceID, _ := c.Get(middleware.DeviceIDKey).(string)
	return c.JSON(http.StatusOK, screenResponse{
		Screen:   domain.NormalizePath(c.Request().URL.Path),
		DeviceID: deviceID,
	})
}
