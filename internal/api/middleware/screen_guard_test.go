package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/service"
	"github.com/xplr/session-gateway/internal/infrastructure/db/memory"
)

func guardRequest(t *testing.T, sessions *service.SessionService, deviceID, path string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if deviceID != "" {
		c.Set(DeviceIDKey, deviceID)
	}

	called := false
	h := ScreenGuard(sessions, service.NewNavigator(nil))(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			rec.Code = he.Code
			return rec, called
		}
		t.Fatalf("handler error: %v", err)
	}
	return rec, called
}

func TestScreenGuard_RedirectsAnonymous(t *testing.T) {
	sessions := service.NewSessionService(memory.NewFlagsStore(), nil, zerolog.Nop())

	rec, called := guardRequest(t, sessions, uuid.NewString(), "/finance")
	if called {
		t.Fatalf("protected screen rendered for anonymous device")
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/auth" {
		t.Fatalf("expected 302 to /auth, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestScreenGuard_RootRedirect(t *testing.T) {
	sessions := service.NewSessionService(memory.NewFlagsStore(), nil, zerolog.Nop())

	rec, _ := guardRequest(t, sessions, uuid.NewString(), "/")
	if rec.Header().Get(echo.HeaderLocation) != "/landing" {
		t.Fatalf("expected redirect to /landing, got %q", rec.Header().Get(echo.HeaderLocation))
	}
}

func TestScreenGuard_AllowsOnboardedOwner(t *testing.T) {
	ctx := context.Background()
	sessions := service.NewSessionService(memory.NewFlagsStore(), nil, zerolog.Nop())
	device := uuid.NewString()

	sc, err := sessions.Open(ctx, device)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = sc.SignIn(ctx, "tok", domain.RoleOwner)
	_ = sc.CompleteOnboarding(ctx, domain.ModeBusiness)

	rec, called := guardRequest(t, sessions, device, "/admin/rates")
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected screen to render, got %d", rec.Code)
	}
}

func TestScreenGuard_MissingDevice(t *testing.T) {
	sessions := service.NewSessionService(memory.NewFlagsStore(), nil, zerolog.Nop())

	rec, called := guardRequest(t, sessions, "", "/landing")
	if called || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without device, got %d", rec.Code)
	}
}
