package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/postmat-dev/postmat/internal/auth"
	"github.com/postmat-dev/postmat/internal/models"
)

// AuthCookieName is the HttpOnly cookie carrying the session token
const AuthCookieName = "auth_token"

var (
	ErrMissingCookie   = errors.New("missing auth cookie")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// resolveSession maps an auth_token value to its live session row.
// The returned error is one of the sentinel errors above.
func resolveSession(db *gorm.DB, token string, now time.Time) (*models.Session, error) {
	if token == "" {
		return nil, ErrMissingCookie
	}

	claims, err := auth.ValidateToken(token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return &models.Session{BaseModel: models.BaseModel{ID: claims.SessionID()}}, ErrSessionExpired
	case err != nil:
		return nil, ErrInvalidToken
	}

	var session models.Session
	if err := db.Preload("User").Where("id = ?", claims.SessionID()).First(&session).Error; err != nil {
		return nil, ErrSessionNotFound
	}

	if session.Expired(now) {
		return &session, ErrSessionExpired
	}

	return &session, nil
}

// CookieAuthMiddleware authenticates requests by the auth_token cookie.
// Missing, invalid, expired and revoked sessions all answer 401.
func CookieAuthMiddleware(db *gorm.DB, log zerolog.Logger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(AuthCookieName)

		session, err := resolveSession(db, token, now())
		if err != nil {
			var message string
			switch err {
			case ErrMissingCookie:
				message = "Authentication credentials were not provided"
			case ErrSessionExpired:
				message = "Token has expired"
			default:
				message = "Invalid token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		setSession(c, &auth.SessionData{
			SessionID:  session.ID,
			UserID:     session.User.ID,
			Email:      session.User.Email,
			IsAdmin:    session.User.IsAdmin,
			IsBusiness: session.User.IsBusiness,
		})

		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.IsAdmin {
			respondWithError(c, log, http.StatusForbidden, errors.New("not admin"), "Admin access required")
			return
		}

		c.Next()
	}
}

// BusinessOnlyMiddleware ensures the authenticated user has an approved business account
func BusinessOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.IsBusiness && !sessionData.IsAdmin {
			respondWithError(c, log, http.StatusForbidden, errors.New("not business"), "Business account required")
			return
		}

		c.Next()
	}
}
