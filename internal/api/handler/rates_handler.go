package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/service"
)

// RatesHandler serves the device's cached exchange rates.
type RatesHandler struct {
	sessionDeps
	rates *service.RatesService
}

func NewRatesHandler(rates *service.RatesService, sessions *service.SessionService, nav *service.Navigator) *RatesHandler {
	return &RatesHandler{sessionDeps: sessionDeps{sessions: sessions, nav: nav}, rates: rates}
}

type ratesRequest struct {
	USD float64 `json:"usd" validate:"gt=0"`
	EUR float64 `json:"eur" validate:"gt=0"`
}

// Get returns cached rates, or defaults.
//
// @Summary      Exchange rates
// @Tags         rates
// @Produce      json
// @Success      200  {object}  domain.Rates
// @Router       /v1/rates [get]
func (h *RatesHandler) Get(c echo.Context) error {
	sc, err := h.open(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.rates.Get(c.Request().Context(), sc.DeviceID()))
}

// Refresh pulls rates from the backend, keeping the cached value on failure.
//
// @Summary      Refresh exchange rates
// @Tags         rates
// @Produce      json
// @Success      200  {object}  domain.Rates
// @Router       /v1/rates/refresh [post]
func (h *RatesHandler) Refresh(c echo.Context) error {
	sc, err := h.open(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.rates.Refresh(c.Request().Context(), sc))
}

// Set overrides the rates. Owner only, as the admin rates screen.
//
// @Summary      Override exchange rates
// @Tags         rates
// @Accept       json
// @Produce      json
// @Param        body  body      ratesRequest  true  "Rates"
// @Success      200   {object}  domain.Rates
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/rates [put]
func (h *RatesHandler) Set(c echo.Context) error {
	var req ratesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sc, err := h.open(c)
	if err != nil {
		return err
	}
	if err := require(c, sc, domain.GuardRequiresOwner); err != nil {
		return err
	}

	r := domain.Rates{USD: req.USD, EUR: req.EUR}
	if err := h.rates.Set(c.Request().Context(), sc.DeviceID(), r); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}
