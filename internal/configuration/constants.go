package configuration

const AppName = "authweb"

// Screen routes. Public and private sets are disjoint; the guard never
// serves one set while the session qualifies for the other.
const (
	RouteLogin     = "/"
	RouteRegister  = "/register"
	RouteChallenge = "/valid-mfa"
	RouteDashboard = "/dashboard"
	RouteMFASetup  = "/mfa_setup"
)

// MFACodeLength is the number of digits in a one-time code.
const MFACodeLength = 6

var ArrayConfigFields = []string{
	"app.allowed_origins",
}

var ConfigFileSearchPaths = []string{
	"./config.yaml",
	"/etc/authweb/config.yaml",
}
