package domain

import (
	"errors"
	"strings"
)

// Role is the coarse permission tier used for personal-tab screens.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// Mode selects which feature set the dashboard presents.
type Mode string

const (
	ModePersonal Mode = "PERSONAL"
	ModeBusiness Mode = "BUSINESS"
)

var (
	ErrInvalidMode  = errors.New("invalid user mode")
	ErrInvalidRole  = errors.New("invalid role")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access forbidden")
	ErrInvalidRates = errors.New("rates must be positive")

	ErrOnboardingRequired = errors.New("onboarding required")
)

// ParseMode accepts the canonical names case-insensitively. The legacy
// "ARBITRAGE" name used by older clients maps to business mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ModePersonal):
		return ModePersonal, nil
	case string(ModeBusiness), "ARBITRAGE":
		return ModeBusiness, nil
	}
	return "", ErrInvalidMode
}

// ParseRole accepts OWNER or MEMBER, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleOwner):
		return RoleOwner, nil
	case string(RoleMember):
		return RoleMember, nil
	}
	return "", ErrInvalidRole
}

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == ModePersonal {
		return ModeBusiness
	}
	return ModePersonal
}

// Session is the authorization-relevant state of one device. Token presence
// is deliberately not part of it: guards read the token fresh on every
// evaluation.
type Session struct {
	Role               Role `json:"role"`
	UserMode           Mode `json:"user_mode"`
	OnboardingComplete bool `json:"onboarding_complete"`
}

// DefaultSession is the state of a device that has never stored anything.
func DefaultSession() Session {
	return Session{
		Role:               RoleOwner,
		UserMode:           ModeBusiness,
		OnboardingComplete: false,
	}
}

func (s Session) IsOwner() bool  { return s.Role == RoleOwner }
func (s Session) IsMember() bool { return s.Role == RoleMember }

// Normalize repairs a decoded record. Unknown roles fall back to OWNER.
// A record that claims onboarding without a valid mode is not trusted: the
// mode resets to the default and onboarding has to be done again.
func (s Session) Normalize() Session {
	out := DefaultSession()

	if role, err := ParseRole(string(s.Role)); err == nil {
		out.Role = role
	}

	mode, err := ParseMode(string(s.UserMode))
	if err != nil {
		return out
	}
	out.UserMode = mode
	out.OnboardingComplete = s.OnboardingComplete
	return out
}
