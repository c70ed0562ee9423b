package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xplr/session-gateway/internal/api/metrics"
	"github.com/xplr/session-gateway/internal/core/service"
)

// NavigationHandler answers "where would this navigation land?" for the SPA.
type NavigationHandler struct {
	sessionDeps
}

func NewNavigationHandler(sessions *service.SessionService, nav *service.Navigator) *NavigationHandler {
	return &NavigationHandler{sessionDeps{sessions: sessions, nav: nav}}
}

type routeResponse struct {
	Path    string `json:"path"`
	Guard   string `json:"guard"`
	AliasOf string `json:"alias_of,omitempty"`
}

// Navigate resolves a path through the guards.
//
// @Summary      Resolve a navigation
// @Tags         navigation
// @Produce      json
// @Param        path  query     string  true  "Screen path, e.g. /teams"
// @Success      200   {object}  service.Resolution
// @Failure      400   {object}  map[string]string
// @Router       /v1/navigate [get]
func (h *NavigationHandler) Navigate(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}
	sc, err := h.open(c)
	if err != nil {
		return err
	}

	res := h.nav.Resolve(c.Request().Context(), sc, path)
	metrics.ObserveNavigation(res.Guard, res.Decision.Allowed, res.Decision.RedirectTo)
	return c.JSON(http.StatusOK, res)
}

// Routes lists the screen map.
//
// @Summary      Screen map
// @Tags         navigation
// @Produce      json
// @Success      200  {array}  routeResponse
// @Router       /v1/routes [get]
func (h *NavigationHandler) Routes(c echo.Context) error {
	table := h.nav.Routes()
	out := make([]routeResponse, 0, len(table))
	for _, p := range table.Paths() {
		r := table[p]
		guard := r.Guard.String()
		if r.AliasOf != "" {
			guard = "alias"
		}
		out = append(out, routeResponse{Path: r.Path, Guard: guard, AliasOf: r.AliasOf})
	}
	return c.JSON(http.StatusOK, out)
}
