package handler

import (
	"net/http"
	"testing"

	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/service"
)

func TestNavigationHandler_Navigate(t *testing.T) {
	env := newTestEnv()
	env.signIn(t, domain.RoleMember, domain.ModePersonal, true)
	h := NewNavigationHandler(env.sessions, env.nav)

	cases := map[string]string{
		"/":        domain.PathDashboard,
		"/teams":   domain.PathForbidden,
		"/finance": domain.PathForbidden,
		"/cards":   "/cards",
		"/login":   domain.PathAuth,
		"/unknown": domain.PathDashboard,
	}
	for path, want := range cases {
		c, rec := newContext(http.MethodGet, "/v1/navigate?path="+path, "")
		if err := h.Navigate(c); err != nil {
			t.Fatalf("%s: handler error: %v", path, err)
		}
		var res service.Resolution
		decodeBody(t, rec, &res)
		if res.Final != want {
			t.Fatalf("%s: final = %s, want %s", path, res.Final, want)
		}
	}
}

func TestNavigationHandler_Navigate_MissingPath(t *testing.T) {
	env := newTestEnv()
	h := NewNavigationHandler(env.sessions, env.nav)

	c, _ := newContext(http.MethodGet, "/v1/navigate", "")
	if code := httpCode(h.Navigate(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestNavigationHandler_Routes(t *testing.T) {
	env := newTestEnv()
	h := NewNavigationHandler(env.sessions, env.nav)

	c, rec := newContext(http.MethodGet, "/v1/routes", "")
	if err := h.Routes(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var routes []routeResponse
	decodeBody(t, rec, &routes)

	byPath := map[string]routeResponse{}
	for _, r := range routes {
		byPath[r.Path] = r
	}
	if byPath["/teams"].Guard != "requires_business_mode" {
		t.Fatalf("unexpected teams guard %+v", byPath["/teams"])
	}
	if byPath["/login"].Guard != "alias" || byPath["/login"].AliasOf != domain.PathAuth {
		t.Fatalf("unexpected login route %+v", byPath["/login"])
	}
}
