package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/makao-homes/makao/internal/auth"
)

// SignUpRequest represents a registration request
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse is returned on successful sign-in or sign-up
type SessionResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

// @Summary Sign up
// @Description Register an account; the first account becomes an active admin
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Sign-up request"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/signup [post]
func (s *Server) signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.authContext(c)
	defer cancel()

	session, user, err := s.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		case auth.IsTimeout(err):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Sign-up timed out, please retry"})
		default:
			s.logger.Error().Err(err).Msg("Failed to sign up user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		}
		return
	}

	s.setSessionCookie(c, session)
	c.JSON(http.StatusCreated, SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	})
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.authContext(c)
	defer cancel()

	session, user, err := s.provider.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			// Inline error; the form stays on screen client-side
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		case auth.IsTimeout(err):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Sign-in timed out, please retry"})
		default:
			s.logger.Error().Err(err).Msg("Failed to sign in user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	s.setSessionCookie(c, session)
	c.JSON(http.StatusOK, SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	})
}

// @Summary Logout
// @Description Tear down the current session
// @Tags auth
// @Produce json
// @Success 204
// @Router /api/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	ctx, cancel := s.authContext(c)
	defer cancel()

	if err := s.provider.SignOut(ctx); err != nil {
		// Session cookie is left intact: stale-but-safe
		s.logger.Warn().Err(err).Msg("Sign-out call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}

	s.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

// @Summary Get current user
// @Description Information about the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionData
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, sessionData)
}

func (s *Server) authContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.config.Auth.Timeout)
}

func (s *Server) setSessionCookie(c *gin.Context, session *auth.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetCookie(sessionCookieName, session.Token, maxAge, "/", "", false, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
}
