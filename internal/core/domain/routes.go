package domain

import (
	"sort"
	"strings"
)

// Route binds a screen path to its guard. Alias routes carry no guard of
// their own and always redirect to AliasOf.
type Route struct {
	Path    string    `json:"path"`
	Guard   GuardKind `json:"-"`
	AliasOf string    `json:"alias_of,omitempty"`
}

// RouteTable maps normalized paths to routes.
type RouteTable map[string]Route

// DefaultRoutes is the dashboard's screen map.
func DefaultRoutes() RouteTable {
	rt := RouteTable{}
	add := func(g GuardKind, paths ...string) {
		for _, p := range paths {
			rt[p] = Route{Path: p, Guard: g}
		}
	}

	add(GuardRootRedirect, PathRoot)
	add(GuardPublic, PathLanding, PathAuth, PathForbidden)
	add(GuardRequiresToken, PathOnboarding)
	add(GuardRequiresOnboarded, PathDashboard, "/cards", "/card-issue", "/settings", "/support", "/api")
	add(GuardRequiresOwner, "/finance", "/referrals", "/admin/rates")
	add(GuardRequiresBusinessMode, "/teams")

	// Legacy entry points kept working after the auth screens merged.
	rt["/login"] = Route{Path: "/login", AliasOf: PathAuth}
	rt["/register"] = Route{Path: "/register", AliasOf: PathAuth}

	return rt
}

// Lookup finds the route for path after normalization.
func (rt RouteTable) Lookup(path string) (Route, bool) {
	r, ok := rt[NormalizePath(path)]
	return r, ok
}

// Paths returns the registered paths in lexical order.
func (rt RouteTable) Paths() []string {
	out := make([]string, 0, len(rt))
	for p := range rt {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NormalizePath strips query, fragment and trailing slashes and makes the
// path absolute.
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
