package guard

import (
	"net/http"
	"strings"

	"authweb/internal/configuration"
	"authweb/internal/session"
)

// The two disjoint screen sets. Which one is reachable is a pure function
// of the session's authentication flag, re-derived on every request; there
// is no cached authorization decision anywhere.
var (
	PublicRoutes = []string{
		configuration.RouteLogin,
		configuration.RouteRegister,
		configuration.RouteChallenge,
	}
	PrivateRoutes = []string{
		configuration.RouteDashboard,
		configuration.RouteMFASetup,
	}
)

// Resolve maps a requested path to the route that will actually be served.
// A path outside the reachable set redirects to the dashboard when
// authenticated, otherwise to the login screen. The second return reports
// whether a redirect happened.
func Resolve(path string, authenticated bool) (string, bool) {
	if authenticated {
		if contains(PrivateRoutes, path) {
			return path, false
		}
		return configuration.RouteDashboard, true
	}

	if contains(PublicRoutes, path) {
		return path, false
	}
	return configuration.RouteLogin, true
}

func contains(routes []string, path string) bool {
	for _, r := range routes {
		if r == path {
			return true
		}
	}
	return false
}

// Middleware enforces Resolve over the screen routes. Requests already on
// their resolved route pass through; everything else is redirected. Paths
// that are not screens (assets, JSON endpoints under /api) are untouched.
func Middleware(store *session.Store) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			path := normalize(r.URL.Path)
			if !isScreen(path, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			target, redirected := Resolve(path, store.Current().IsAuthenticated())
			if redirected {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// normalize strips a trailing slash so "/mfa_setup/" guards like
// "/mfa_setup".
func normalize(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func isScreen(normalized string, raw string) bool {
	return contains(PublicRoutes, normalized) || contains(PrivateRoutes, normalized) ||
		!knownPrefix(raw)
}

// knownPrefix reports whether the path belongs to the non-screen surface
// (flow endpoints and JSON APIs) that the guard leaves alone.
func knownPrefix(path string) bool {
	for _, p := range []string{"/api/", "/valid-mfa/", "/mfa_setup/", "/logout"} {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
