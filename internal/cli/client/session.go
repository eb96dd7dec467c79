package client

import (
	"context"
	"net/http"
)

// Token health reasons reported by the server
const (
	ReasonOK       = "ok"
	ReasonNoCookie = "no_cookie"
	ReasonInvalid  = "invalid"
	ReasonExpired  = "expired"
)

// TokenHealth is the server's verdict on the current auth_token cookie
type TokenHealth struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// SessionEnded reports whether the session is gone for good rather than the
// 401 being transient.
func (h TokenHealth) SessionEnded() bool {
	return !h.Valid && (h.Reason == ReasonExpired || h.Reason == ReasonInvalid)
}

// TokenHealth asks the server whether the stored session cookie is usable
func (c *Client) TokenHealth(ctx context.Context) (*TokenHealth, error) {
	var health TokenHealth
	if err := c.Do(ctx, http.MethodGet, TokenHealthPath, nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// handleUnauthorized decides whether a 401 means the session is over.
// At most one health check runs per client; 401s arriving meanwhile are left alone.
func (c *Client) handleUnauthorized(ctx context.Context) {
	if !c.checkingToken.CompareAndSwap(false, true) {
		c.logger.Debug().Msg("Token health check already in progress, skipping")
		return
	}
	defer c.checkingToken.Store(false)

	var health TokenHealth
	if err := c.do(ctx, http.MethodGet, TokenHealthPath, nil, &health, false); err != nil {
		c.logger.Error().Err(err).Msg("Token health check failed")
		return
	}

	if !health.SessionEnded() {
		c.logger.Info().Str("reason", health.Reason).Msg("Token is still valid, ignoring 401")
		return
	}

	c.logger.Warn().Str("reason", health.Reason).Msg("Token invalid, clearing session")
	c.endSession(ctx)
}

// endSession logs out server-side, drops the local flag and sends the user to
// the login route. The server call is best effort: a session the server
// already considers dead usually makes logout answer 401 as well.
func (c *Client) endSession(ctx context.Context) {
	if err := c.do(ctx, http.MethodPost, LogoutPath, nil, nil, false); err != nil {
		c.logger.Warn().Err(err).Msg("Logout request failed, clearing local session anyway")
	}

	if c.flag != nil {
		if err := c.flag.SetLoggedIn(false); err != nil {
			c.logger.Error().Err(err).Msg("Failed to clear logged-in flag")
		}
	}

	if c.navigator != nil {
		c.navigator.Navigate(LoginRoute)
	}
}
