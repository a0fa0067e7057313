package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/makao-homes/makao/internal/auth"
)

const (
	bearerPrefix = "Bearer "

	// sessionCookieName carries the session token for browser clients;
	// API clients may send it as a bearer token instead
	sessionCookieName = "makao_session"
)

var (
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
)

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

func setSession(c *gin.Context, sessionData *SessionData) {
	c.Set("session", sessionData)
}

// GetSessionData returns the session attached by the auth guard
func GetSessionData(c *gin.Context) (*SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// sessionToken resolves the session token for a request: bearer header
// first, session cookie as the browser fallback
func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, err := extractBearerToken(header); err == nil {
			return token
		}
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// wantsHTML reports whether the client negotiates an HTML response, in
// which case the guard redirects instead of answering with JSON
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// AuthGuard gates a protected route group. Each request gets its own
// auth store: one session resolution, a live role lookup when admin
// access is required, then the guard decision mapped onto HTTP. A
// non-render decision produces no protected content at all.
func (s *Server) AuthGuard(requireAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := auth.NewStore(s.provider, s.roles, s.config.Auth.Timeout, s.logger)
		defer store.Close()

		if err := store.GetInitialSession(c.Request.Context(), sessionToken(c)); err != nil {
			// Timeout is retryable; never downgraded to signed-out
			s.logger.Warn().Err(err).Msg("Session resolution timed out")
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Authentication timed out, please retry"})
			c.Abort()
			return
		}

		state := store.State()

		isAdmin := false
		if requireAdmin && state.IsAuthenticated() {
			var err error
			isAdmin, err = store.IsAdmin(c.Request.Context())
			if err != nil && auth.IsTimeout(err) {
				s.logger.Warn().Err(err).Msg("Role lookup timed out")
				c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Authorization timed out, please retry"})
				c.Abort()
				return
			}
		}

		decision := auth.Evaluate(auth.GuardState{
			Loading:         state.Loading,
			IsAuthenticated: state.IsAuthenticated(),
			IsAdmin:         isAdmin,
		}, requireAdmin)

		switch decision {
		case auth.DecisionRender:
			setSession(c, &SessionData{
				UserID:  state.User.ID,
				Email:   state.User.Email,
				IsAdmin: isAdmin,
			})
			c.Next()
		case auth.DecisionRedirectLogin:
			s.rejectRequest(c, auth.LoginRoute, http.StatusUnauthorized, "Authentication required")
		case auth.DecisionRedirectUnauthorized:
			s.rejectRequest(c, auth.UnauthorizedRoute, http.StatusForbidden, "Admin access required")
		default:
			// Unresolved state never renders protected content
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Session still resolving"})
			c.Abort()
		}
	}
}

// rejectRequest redirects browser clients to the named view and answers
// API clients with a JSON error
func (s *Server) rejectRequest(c *gin.Context, target string, statusCode int, message string) {
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}
	c.JSON(statusCode, gin.H{"error": message, "redirect": target})
	c.Abort()
}
