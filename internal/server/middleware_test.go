package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makao-homes/makao/internal/auth"
	"github.com/makao-homes/makao/internal/config"
	"github.com/makao-homes/makao/internal/models"
)

type stubProvider struct {
	validToken string
	user       *auth.User
	getErr     error
}

func (p *stubProvider) GetSession(ctx context.Context, token string) (*auth.Session, *auth.User, error) {
	if p.getErr != nil {
		return nil, nil, p.getErr
	}
	if token == "" || token != p.validToken {
		return nil, nil, nil
	}
	session := &auth.Session{Token: token, ExpiresAt: time.Now().Add(time.Hour)}
	return session, p.user, nil
}

func (p *stubProvider) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, *auth.User, error) {
	return nil, nil, auth.ErrInvalidCredentials
}

func (p *stubProvider) SignUp(ctx context.Context, email, password string) (*auth.Session, *auth.User, error) {
	return nil, nil, auth.ErrEmailTaken
}

func (p *stubProvider) SignOut(ctx context.Context) error { return nil }

func (p *stubProvider) OnAuthStateChange(fn func(auth.StateChange)) func() {
	return func() {}
}

type stubRoles struct {
	record *auth.RoleRecord
	err    error
}

func (r *stubRoles) FetchProfile(ctx context.Context, userID string) (*auth.RoleRecord, error) {
	return r.record, r.err
}

func newGuardedRouter(provider auth.SessionProvider, roles auth.RoleLookup, requireAdmin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := &Server{
		config: &config.Config{
			Auth: config.AuthConfig{Timeout: time.Second},
		},
		logger:   zerolog.Nop(),
		provider: provider,
		roles:    roles,
	}

	router := gin.New()
	router.GET("/protected", s.AuthGuard(requireAdmin), func(c *gin.Context) {
		session, ok := GetSessionData(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": session.Email, "secret": "protected-content"})
	})
	return router
}

func performRequest(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthGuard_NoToken(t *testing.T) {
	router := newGuardedRouter(&stubProvider{}, &stubRoles{}, false)

	w := performRequest(router, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), auth.LoginRoute)
	assert.NotContains(t, w.Body.String(), "protected-content")
}

func TestAuthGuard_NoTokenBrowserRedirects(t *testing.T) {
	router := newGuardedRouter(&stubProvider{}, &stubRoles{}, false)

	w := performRequest(router, map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, auth.LoginRoute, w.Header().Get("Location"))
	assert.NotContains(t, w.Body.String(), "protected-content")
}

func TestAuthGuard_ValidSession(t *testing.T) {
	provider := &stubProvider{
		validToken: "good-token",
		user:       &auth.User{ID: "user-1", Email: "asha@example.com"},
	}
	router := newGuardedRouter(provider, &stubRoles{}, false)

	w := performRequest(router, map[string]string{
		"Authorization": "Bearer good-token",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "asha@example.com")
}

func TestAuthGuard_SessionFromCookie(t *testing.T) {
	provider := &stubProvider{
		validToken: "cookie-token",
		user:       &auth.User{ID: "user-1", Email: "asha@example.com"},
	}
	router := newGuardedRouter(provider, &stubRoles{}, false)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie-token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthGuard_InvalidTokenIsSignedOut(t *testing.T) {
	provider := &stubProvider{validToken: "good-token"}
	router := newGuardedRouter(provider, &stubRoles{}, false)

	w := performRequest(router, map[string]string{
		"Authorization": "Bearer expired-token",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthGuard_AdminRequired(t *testing.T) {
	user := &auth.User{ID: "user-1", Email: "admin@example.com"}

	tests := []struct {
		name       string
		roles      *stubRoles
		wantCode   int
		wantTarget string
	}{
		{
			name:     "active admin renders",
			roles:    &stubRoles{record: &auth.RoleRecord{Role: models.RoleAdmin, IsActive: true}},
			wantCode: http.StatusOK,
		},
		{
			name:     "super admin renders",
			roles:    &stubRoles{record: &auth.RoleRecord{Role: models.RoleSuperAdmin, IsActive: true}},
			wantCode: http.StatusOK,
		},
		{
			name:       "inactive admin is rejected",
			roles:      &stubRoles{record: &auth.RoleRecord{Role: models.RoleAdmin, IsActive: false}},
			wantCode:   http.StatusForbidden,
			wantTarget: auth.UnauthorizedRoute,
		},
		{
			name:       "regular user is rejected",
			roles:      &stubRoles{record: &auth.RoleRecord{Role: models.RoleUser, IsActive: true}},
			wantCode:   http.StatusForbidden,
			wantTarget: auth.UnauthorizedRoute,
		},
		{
			name:       "missing profile is rejected",
			roles:      &stubRoles{},
			wantCode:   http.StatusForbidden,
			wantTarget: auth.UnauthorizedRoute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{validToken: "good-token", user: user}
			router := newGuardedRouter(provider, tt.roles, true)

			w := performRequest(router, map[string]string{
				"Authorization": "Bearer good-token",
			})

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantTarget != "" {
				assert.Contains(t, w.Body.String(), tt.wantTarget)
				assert.NotContains(t, w.Body.String(), "protected-content")
			}
		})
	}
}

func TestAuthGuard_AdminRejectionRedirectsBrowser(t *testing.T) {
	provider := &stubProvider{
		validToken: "good-token",
		user:       &auth.User{ID: "user-1", Email: "user@example.com"},
	}
	roles := &stubRoles{record: &auth.RoleRecord{Role: models.RoleUser, IsActive: true}}
	router := newGuardedRouter(provider, roles, true)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, auth.UnauthorizedRoute, w.Header().Get("Location"))
}

func TestAuthGuard_SessionFetchTimeout(t *testing.T) {
	provider := &stubProvider{
		getErr: fmt.Errorf("%w: %v", auth.ErrTimeout, context.DeadlineExceeded),
	}
	router := newGuardedRouter(provider, &stubRoles{}, false)

	w := performRequest(router, map[string]string{
		"Authorization": "Bearer good-token",
	})

	// Timeout is a retryable condition, never mapped to signed-out
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.NotContains(t, w.Body.String(), auth.LoginRoute)
}

func TestAuthGuard_RoleLookupTimeout(t *testing.T) {
	provider := &stubProvider{
		validToken: "good-token",
		user:       &auth.User{ID: "user-1", Email: "admin@example.com"},
	}
	roles := &stubRoles{err: fmt.Errorf("%w: %v", auth.ErrTimeout, context.DeadlineExceeded)}
	router := newGuardedRouter(provider, roles, true)

	w := performRequest(router, map[string]string{
		"Authorization": "Bearer good-token",
	})

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.NotContains(t, w.Body.String(), "protected-content")
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"valid", "Bearer abc123", "abc123", nil},
		{"empty token", "Bearer ", "", ErrEmptyToken},
		{"missing prefix", "abc123", "", ErrInvalidAuthFormat},
		{"wrong scheme", "Basic abc123", "", ErrInvalidAuthFormat},
		{"lowercase scheme", "bearer abc123", "", ErrInvalidAuthFormat},
		{"empty header", "", "", ErrInvalidAuthFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractBearerToken(tt.header)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
