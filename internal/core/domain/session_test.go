package domain

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"PERSONAL":  ModePersonal,
		"personal":  ModePersonal,
		" Business": ModeBusiness,
		"ARBITRAGE": ModeBusiness,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMode(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseMode("TRADING"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("member"); err != nil || r != RoleMember {
		t.Fatalf("ParseRole(member) = %s, %v", r, err)
	}
	if _, err := ParseRole("ADMIN"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestModeOther(t *testing.T) {
	if ModePersonal.Other() != ModeBusiness || ModeBusiness.Other() != ModePersonal {
		t.Fatalf("Other does not flip modes")
	}
}

func TestDefaultSession(t *testing.T) {
	s := DefaultSession()
	if s.Role != RoleOwner || s.UserMode != ModeBusiness || s.OnboardingComplete {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if !s.IsOwner() || s.IsMember() {
		t.Fatalf("default session should be owner")
	}
}

func TestSessionNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Session
		want Session
	}{
		{
			name: "valid record kept",
			in:   Session{Role: RoleMember, UserMode: ModePersonal, OnboardingComplete: true},
			want: Session{Role: RoleMember, UserMode: ModePersonal, OnboardingComplete: true},
		},
		{
			name: "legacy mode mapped",
			in:   Session{Role: RoleOwner, UserMode: "ARBITRAGE", OnboardingComplete: true},
			want: Session{Role: RoleOwner, UserMode: ModeBusiness, OnboardingComplete: true},
		},
		{
			name: "onboarded without mode must onboard again",
			in:   Session{Role: RoleMember, OnboardingComplete: true},
			want: Session{Role: RoleMember, UserMode: ModeBusiness, OnboardingComplete: false},
		},
		{
			name: "onboarded with garbage mode must onboard again",
			in:   Session{Role: RoleOwner, UserMode: "TRADING", OnboardingComplete: true},
			want: Session{Role: RoleOwner, UserMode: ModeBusiness, OnboardingComplete: false},
		},
		{
			name: "unknown role falls back to owner",
			in:   Session{Role: "ADMIN", UserMode: ModePersonal, OnboardingComplete: true},
			want: Session{Role: RoleOwner, UserMode: ModePersonal, OnboardingComplete: true},
		},
		{
			name: "zero value becomes default",
			in:   Session{},
			want: DefaultSession(),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(); got != tc.want {
				t.Fatalf("Normalize() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRatesValid(t *testing.T) {
	if !DefaultRates().Valid() {
		t.Fatalf("default rates should be valid")
	}
	if (Rates{USD: 0, EUR: 1}).Valid() || (Rates{USD: 1, EUR: -1}).Valid() {
		t.Fatalf("non-positive rates should be invalid")
	}
}
