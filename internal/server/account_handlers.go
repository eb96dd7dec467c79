package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/postmat-dev/postmat/internal/auth"
	"github.com/postmat-dev/postmat/internal/models"
)

// Token health reasons
const (
	reasonOK       = "ok"
	reasonNoCookie = "no_cookie"
	reasonInvalid  = "invalid"
	reasonExpired  = "expired"
)

// RegisterRequest represents an account registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response. The token is also set as the
// auth_token cookie, which is what authenticates later requests.
type LoginResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// TokenHealthResponse reports whether the auth_token cookie is usable
type TokenHealthResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// setAuthCookie sets a session cookie with no Max-Age. A stale token keeps
// reaching the server, which can then answer "expired" instead of "no_cookie".
func (s *Server) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, token, 0, "/", "", s.config.HTTP.SecureCookies, true)
}

func (s *Server) clearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, "", -1, "/", "", s.config.HTTP.SecureCookies, true)
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	c.JSON(http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	session := &models.Session{
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.config.Session.TTL),
	}
	if err := s.db.Create(session).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	token, err := auth.GenerateToken(session.ID, user.ID, session.ExpiresAt)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.setAuthCookie(c, token)

	s.logger.Info().Str("user_id", user.ID).Str("session_id", session.ID).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		Status: "User authenticated",
		Token:  token,
	})
}

func (s *Server) logout(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	if err := s.db.Where("id = ?", sessionData.SessionID).Delete(&models.Session{}).Error; err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionData.SessionID).Msg("Failed to delete session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.clearAuthCookie(c)

	s.logger.Info().Str("user_id", sessionData.UserID).Str("session_id", sessionData.SessionID).Msg("User logged out")
	c.JSON(http.StatusOK, gin.H{"status": "Logged out"})
}

// tokenHealth always answers 200. Invalid and expired cookies are deleted,
// and an expired session row is removed with them.
func (s *Server) tokenHealth(c *gin.Context) {
	token, _ := c.Cookie(AuthCookieName)

	session, err := resolveSession(s.db, token, s.now())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, TokenHealthResponse{Valid: true, Reason: reasonOK})
	case errors.Is(err, ErrMissingCookie):
		c.JSON(http.StatusOK, TokenHealthResponse{Valid: false, Reason: reasonNoCookie})
	case errors.Is(err, ErrSessionExpired):
		if err := s.db.Where("id = ?", session.ID).Delete(&models.Session{}).Error; err != nil {
			s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Failed to delete expired session")
		}
		s.clearAuthCookie(c)
		c.JSON(http.StatusOK, TokenHealthResponse{Valid: false, Reason: reasonExpired})
	default:
		s.clearAuthCookie(c)
		c.JSON(http.StatusOK, TokenHealthResponse{Valid: false, Reason: reasonInvalid})
	}
}

func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}
