package domain

// Fallback screens a denied navigation lands on.
const (
	PathRoot       = "/"
	PathLanding    = "/landing"
	PathAuth       = "/auth"
	PathOnboarding = "/onboarding"
	PathForbidden  = "/forbidden"
	PathDashboard  = "/dashboard"
)

// GuardKind tags the access rule attached to a screen.
type GuardKind int

const (
	GuardPublic GuardKind = iota
	GuardRequiresToken
	GuardRequiresOnboarded
	GuardRequiresOwner
	GuardRequiresBusinessMode
	GuardRootRedirect

	// GuardUnknown marks paths missing from the route table.
	GuardUnknown GuardKind = -1
)

var guardNames = map[GuardKind]string{
	GuardPublic:               "public",
	GuardRequiresToken:        "requires_token",
	GuardRequiresOnboarded:    "requires_onboarded",
	GuardRequiresOwner:        "requires_owner",
	GuardRequiresBusinessMode: "requires_business_mode",
	GuardRootRedirect:         "root_redirect",
}

func (k GuardKind) String() string {
	if name, ok := guardNames[k]; ok {
		return name
	}
	return "unknown"
}

// Decision is the outcome of a guard evaluation: either the screen may
// mount, or the navigation is replaced by RedirectTo.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

func Allow() Decision                 { return Decision{Allowed: true} }
func RedirectTo(path string) Decision { return Decision{RedirectTo: path} }

// Err converts a denial into the error an API caller sees: a missing token
// is unauthorized, missing onboarding and role/mode mismatches are
// forbidden. Allowed decisions return nil.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.RedirectTo == PathAuth:
		return ErrUnauthorized
	case d.RedirectTo == PathOnboarding:
		return ErrOnboardingRequired
	}
	return ErrForbidden
}

// check is one precedence step. It returns the redirect target when the
// step fails.
type check struct {
	passes   func(tokenPresent bool, s Session) bool
	redirect string
}

var (
	tokenCheck = check{
		passes:   func(tokenPresent bool, _ Session) bool { return tokenPresent },
		redirect: PathAuth,
	}
	onboardedCheck = check{
		passes:   func(_ bool, s Session) bool { return s.OnboardingComplete },
		redirect: PathOnboarding,
	}
	ownerCheck = check{
		passes:   func(_ bool, s Session) bool { return s.IsOwner() },
		redirect: PathForbidden,
	}
	businessCheck = check{
		passes:   func(_ bool, s Session) bool { return s.UserMode == ModeBusiness },
		redirect: PathForbidden,
	}
	rejectCheck = check{
		passes:   func(bool, Session) bool { return false },
		redirect: PathForbidden,
	}
)

// guardChecks lists, in precedence order, the checks each kind runs. The
// first failing check decides the redirect.
var guardChecks = map[GuardKind][]check{
	GuardPublic:               nil,
	GuardRequiresToken:        {tokenCheck},
	GuardRequiresOnboarded:    {tokenCheck, onboardedCheck},
	GuardRequiresOwner:        {tokenCheck, onboardedCheck, ownerCheck},
	GuardRequiresBusinessMode: {tokenCheck, onboardedCheck, businessCheck},
}

// Evaluate decides whether a screen protected by kind may render. It is
// total: an unrecognised kind is treated as authenticated-but-forbidden.
func Evaluate(kind GuardKind, tokenPresent bool, s Session) Decision {
	if kind == GuardRootRedirect {
		if tokenPresent {
			return RedirectTo(PathDashboard)
		}
		return RedirectTo(PathLanding)
	}

	checks, ok := guardChecks[kind]
	if !ok {
		checks = []check{tokenCheck, rejectCheck}
	}
	for _, c := range checks {
		if !c.passes(tokenPresent, s) {
			return RedirectTo(c.redirect)
		}
	}
	return Allow()
}
