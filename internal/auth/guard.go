package auth

// Logical navigation targets used by the route guard
const (
	LoginRoute        = "/login"
	UnauthorizedRoute = "/unauthorized"
	DashboardRoute    = "/admin"
)

// Decision is the route guard's verdict for a protected view
type Decision int

const (
	// DecisionLoading renders a placeholder and nothing else; no redirect
	// may happen while the initial session resolution is pending
	DecisionLoading Decision = iota
	// DecisionRedirectLogin sends the caller to the login view
	DecisionRedirectLogin
	// DecisionRedirectUnauthorized sends an authenticated but
	// unauthorized caller to the unauthorized view
	DecisionRedirectUnauthorized
	// DecisionRender allows the protected content
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirectLogin:
		return "redirect-login"
	case DecisionRedirectUnauthorized:
		return "redirect-unauthorized"
	case DecisionRender:
		return "render"
	default:
		return "unknown"
	}
}

// GuardState is the snapshot the guard evaluates
type GuardState struct {
	Loading         bool
	IsAuthenticated bool
	IsAdmin         bool
}

// Evaluate applies the access policy. It is re-run on every request and
// every state change; any non-render decision must produce no protected
// content, including the transitional frame before a redirect lands.
func Evaluate(state GuardState, requireAdmin bool) Decision {
	if state.Loading {
		return DecisionLoading
	}
	if !state.IsAuthenticated {
		return DecisionRedirectLogin
	}
	if requireAdmin && !state.IsAdmin {
		return DecisionRedirectUnauthorized
	}
	return DecisionRender
}
