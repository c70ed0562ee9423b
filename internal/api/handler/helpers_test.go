package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/api/middleware"
	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
	"github.com/xplr/session-gateway/internal/core/service"
	"github.com/xplr/session-gateway/internal/infrastructure/db/memory"
)

const testDevice = "0d6f1c2a-93b4-4c1e-8d2f-7a5b9e3c1f40"

type testEnv struct {
	store    *memory.FlagsStore
	sessions *service.SessionService
	nav      *service.Navigator
}

func newTestEnv() *testEnv {
	store := memory.NewFlagsStore()
	return &testEnv{
		store:    store,
		sessions: service.NewSessionService(store, nil, zerolog.Nop()),
		nav:      service.NewNavigator(nil),
	}
}

// signIn puts the test device into the given state directly through the store-backed context.
func (env *testEnv) signIn(t *testing.T, role domain.Role, mode domain.Mode, onboarded bool) {
	t.Helper()
	ctx := context.Background()
	sc, err := env.sessions.Open(ctx, testDevice)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := sc.SignIn(ctx, "tok-test", role); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if onboarded {
		if err := sc.CompleteOnboarding(ctx, mode); err != nil {
			t.Fatalf("CompleteOnboarding: %v", err)
		}
	}
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.DeviceIDKey, testDevice)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func httpCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

type stubBackend struct {
	loginFn   func(email, password string) (*ports.AuthResult, error)
	userFn    func(tokens ports.TokenSource) (*ports.BackendUser, error)
	sectionFn func(name string, tokens ports.TokenSource) (json.RawMessage, error)
	forwardFn func(tokens ports.TokenSource, req ports.ForwardRequest) (*ports.ForwardResponse, error)
	rates     domain.Rates
}

func (b *stubBackend) Login(_ context.Context, email, password string) (*ports.AuthResult, error) {
	return b.loginFn(email, password)
}

func (b *stubBackend) Register(_ context.Context, email, password string) (*ports.AuthResult, error) {
	return b.loginFn(email, password)
}

func (b *stubBackend) CurrentUser(_ context.Context, tokens ports.TokenSource) (*ports.BackendUser, error) {
	return b.userFn(tokens)
}

func (b *stubBackend) section(name string, tokens ports.TokenSource) (json.RawMessage, error) {
	if b.sectionFn == nil {
		return json.RawMessage(`[]`), nil
	}
	return b.sectionFn(name, tokens)
}

func (b *stubBackend) Cards(_ context.Context, tokens ports.TokenSource) (json.RawMessage, error) {
	return b.section("cards", tokens)
}

func (b *stubBackend) Teams(_ context.Context, tokens ports.TokenSource) (json.RawMessage, error) {
	return b.section("teams", tokens)
}

func (b *stubBackend) ReferralStats(_ context.Context, tokens ports.TokenSource) (json.RawMessage, error) {
	return b.section("referrals", tokens)
}

func (b *stubBackend) Grade(_ context.Context, tokens ports.TokenSource) (json.RawMessage, error) {
	return b.section("grade", tokens)
}

func (b *stubBackend) Rates(context.Context, ports.TokenSource) (domain.Rates, error) {
	return b.rates, nil
}

func (b *stubBackend) Forward(_ context.Context, tokens ports.TokenSource, req ports.ForwardRequest) (*ports.ForwardResponse, error) {
	return b.forwardFn(tokens, req)
}

var _ ports.Backend = (*stubBackend)(nil)

