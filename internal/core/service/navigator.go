package service

import (
	"context"

	"github.com/xplr/session-gateway/internal/core/domain"
)

const maxRedirectHops = 8

// GuardSubject is what a guard needs to know about the navigating device.
type GuardSubject interface {
	TokenPresent(ctx context.Context) bool
	Session() domain.Session
}

// Resolution describes where a navigation ends up.
type Resolution struct {
	Requested string          `json:"requested"`
	Final     string          `json:"final"`
	Guard     string          `json:"guard"`
	Decision  domain.Decision `json:"decision"`
	Hops      []string        `json:"hops"`
}

// Redirected reports whether the requested screen was replaced.
func (r Resolution) Redirected() bool {
	return !r.Decision.Allowed
}

// Navigator evaluates navigation attempts against a route table.
type Navigator struct {
	routes domain.RouteTable
}

// NewNavigator returns a Navigator for routes, or the default screen map
// when routes is nil.
func NewNavigator(routes domain.RouteTable) *Navigator {
	if routes == nil {
		routes = domain.DefaultRoutes()
	}
	return &Navigator{routes: routes}
}

func (n *Navigator) Routes() domain.RouteTable { return n.routes }

// Decide evaluates a single navigation step. Unknown paths fall back to
// the root, which picks the entry screen.
func (n *Navigator) Decide(ctx context.Context, subject GuardSubject, path string) (domain.Route, domain.Decision) {
	route, ok := n.routes.Lookup(path)
	switch {
	case !ok:
		return domain.Route{Path: domain.NormalizePath(path), Guard: domain.GuardUnknown}, domain.RedirectTo(domain.PathRoot)
	case route.AliasOf != "":
		return route, domain.RedirectTo(route.AliasOf)
	}
	return route, domain.Evaluate(route.Guard, subject.TokenPresent(ctx), subject.Session())
}

// Resolve follows redirects from path until a screen is allowed. Every
// step re-reads token presence, so a token cleared mid-chain is observed.
func (n *Navigator) Resolve(ctx context.Context, subject GuardSubject, path string) Resolution {
	current := domain.NormalizePath(path)
	res := Resolution{Requested: current}
	seen := map[string]bool{}

	for hop := 0; hop < maxRedirectHops; hop++ {
		res.Hops = append(res.Hops, current)
		route, decision := n.Decide(ctx, subject, current)
		if hop == 0 {
			res.Decision = decision
			res.Guard = guardLabel(route)
		}
		if decision.Allowed {
			res.Final = current
			return res
		}
		seen[current] = true
		current = domain.NormalizePath(decision.RedirectTo)
		if seen[current] {
			break
		}
	}

	// A redirect cycle means the table is misconfigured; land on the
	// public auth screen.
	res.Final = domain.PathAuth
	return res
}

func guardLabel(r domain.Route) string {
	if r.AliasOf != "" {
		return "alias"
	}
	return r.Guard.String()
}
