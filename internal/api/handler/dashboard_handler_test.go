package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
)

func dashboardBackend(fetched map[string]bool) *stubBackend {
	return &stubBackend{
		userFn: func(ports.TokenSource) (*ports.BackendUser, error) {
			return &ports.BackendUser{ID: 3, Email: "c@xplr.io", Balance: "10.00"}, nil
		},
		sectionFn: func(name string, _ ports.TokenSource) (json.RawMessage, error) {
			fetched[name] = true
			return json.RawMessage(fmt.Sprintf(`{"section":%q}`, name)), nil
		},
	}
}

func TestDashboardHandler_SectionsFollowSession(t *testing.T) {
	cases := []struct {
		name string
		role domain.Role
		mode domain.Mode
		want map[string]bool
	}{
		{"owner business", domain.RoleOwner, domain.ModeBusiness, map[string]bool{"cards": true, "grade": true, "referrals": true, "teams": true}},
		{"owner personal", domain.RoleOwner, domain.ModePersonal, map[string]bool{"cards": true, "grade": true, "referrals": true}},
		{"member business", domain.RoleMember, domain.ModeBusiness, map[string]bool{"cards": true, "grade": true, "teams": true}},
		{"member personal", domain.RoleMember, domain.ModePersonal, map[string]bool{"cards": true, "grade": true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.signIn(t, tc.role, tc.mode, true)
			fetched := map[string]bool{}
			h := NewDashboardHandler(dashboardBackend(fetched), env.sessions, env.nav, zerolog.Nop())

			c, rec := newContext(http.MethodGet, "/v1/dashboard", "")
			if err := h.Get(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if len(fetched) != len(tc.want) {
				t.Fatalf("fetched %v, want %v", fetched, tc.want)
			}
			for name := range tc.want {
				if !fetched[name] {
					t.Fatalf("section %s not fetched", name)
				}
			}

			var resp map[string]any
			decodeBody(t, rec, &resp)
			if _, ok := resp["teams"]; ok != tc.want["teams"] {
				t.Fatalf("teams section presence = %v, want %v", ok, tc.want["teams"])
			}
		})
	}
}

func TestDashboardHandler_RequiresOnboarding(t *testing.T) {
	env := newTestEnv()
	env.signIn(t, domain.RoleOwner, "", false)
	h := NewDashboardHandler(dashboardBackend(map[string]bool{}), env.sessions, env.nav, zerolog.Nop())

	c, _ := newContext(http.MethodGet, "/v1/dashboard", "")
	if err := h.Get(c); !errors.Is(err, domain.ErrOnboardingRequired) {
		t.Fatalf("expected ErrOnboardingRequired, got %v", err)
	}
}

func TestDashboardHandler_SectionFailureSkipped(t *testing.T) {
	env := newTestEnv()
	env.signIn(t, domain.RoleOwner, domain.ModeBusiness, true)
	stub := dashboardBackend(map[string]bool{})
	stub.sectionFn = func(name string, _ ports.TokenSource) (json.RawMessage, error) {
		if name == "grade" {
			return nil, errors.New("grade service down")
		}
		return json.RawMessage(`[]`), nil
	}
	h := NewDashboardHandler(stub, env.sessions, env.nav, zerolog.Nop())

	c, rec := newContext(http.MethodGet, "/v1/dashboard", "")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	decodeBody(t, rec, &resp)
	if _, ok := resp["grade"]; ok {
		t.Fatalf("failed section should be omitted")
	}
	if _, ok := resp["cards"]; !ok {
		t.Fatalf("healthy sections should be present")
	}
}

func TestDashboardHandler_UnauthorizedAborts(t *testing.T) {
	env := newTestEnv()
	env.signIn(t, domain.RoleOwner, domain.ModeBusiness, true)
	stub := dashboardBackend(map[string]bool{})
	stub.userFn = func(ports.TokenSource) (*ports.BackendUser, error) {
		return nil, domain.ErrUnauthorized
	}
	h := NewDashboardHandler(stub, env.sessions, env.nav, zerolog.Nop())

	c, _ := newContext(http.MethodGet, "/v1/dashboard", "")
	if err := h.Get(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
