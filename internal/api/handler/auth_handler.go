package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xplr/session-gateway/internal/api/metrics"
	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
	"github.com/xplr/session-gateway/internal/core/service"
)

// AuthHandler signs devices in through the backend and keeps the issued
// token in the device's flags.
type AuthHandler struct {
	sessionDeps
	backend ports.Backend
}

func NewAuthHandler(backend ports.Backend, sessions *service.SessionService, nav *service.Navigator) *AuthHandler {
	return &AuthHandler{sessionDeps: sessionDeps{sessions: sessions, nav: nav}, backend: backend}
}

const (
	opLogin    = "login"
	opRegister = "register"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type authResponse struct {
	User    ports.BackendUser `json:"user"`
	Session sessionView       `json:"session"`
}

// Login authenticates against the backend and stores the token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.backend.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.ObserveMutation(opLogin, err)
		return err
	}
	return h.signIn(c, opLogin, http.StatusOK, res)
}

// Register creates a backend account and signs the device in.
//
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Credentials"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.backend.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.ObserveMutation(opRegister, err)
		return err
	}
	return h.signIn(c, opRegister, http.StatusCreated, res)
}

func (h *AuthHandler) signIn(c echo.Context, op string, status int, res *ports.AuthResult) error {
	sc, err := h.open(c)
	if err != nil {
		return err
	}

	role := domain.RoleOwner
	if r, err := domain.ParseRole(res.User.Role); err == nil {
		role = r
	}

	err = sc.SignIn(c.Request().Context(), res.Token, role)
	metrics.ObserveMutation(op, err)
	if err != nil {
		return err
	}
	return c.JSON(status, authResponse{User: res.User, Session: h.view(c, sc)})
}
