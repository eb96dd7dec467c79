package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrNotFound is returned by lookups the server answers with 404
var ErrNotFound = errors.New("not found")

// Login authenticates with email and password. The server answers with the
// auth_token cookie, which the jar keeps for subsequent requests.
// A 401 here means bad credentials, so it skips the session-expiry check.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var loginResp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/accounts/user/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &loginResp, false); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if c.flag != nil {
		if err := c.flag.SetLoggedIn(true); err != nil {
			return nil, fmt.Errorf("failed to save logged-in flag: %w", err)
		}
	}

	return &loginResp, nil
}

// Logout destroys the session on the server and clears the local flag.
// The flag is cleared even when the server call fails. A 401 means the
// session is already gone, so it skips the session-expiry check.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, LogoutPath, nil, nil, false)

	if c.flag != nil {
		if flagErr := c.flag.SetLoggedIn(false); flagErr != nil {
			return errors.Join(err, fmt.Errorf("failed to clear logged-in flag: %w", flagErr))
		}
	}

	return err
}

// CurrentUser returns the account the session belongs to
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Do(ctx, http.MethodGet, "/accounts/user/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DashboardStats returns the business panel totals
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := c.Do(ctx, http.MethodGet, "/api/business/dashboard/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListMagazines returns the magazines of the current business account
func (c *Client) ListMagazines(ctx context.Context) ([]Magazine, error) {
	var magazines []Magazine
	if err := c.Do(ctx, http.MethodGet, "/api/business/magazines", nil, &magazines); err != nil {
		return nil, err
	}
	return magazines, nil
}

// CreateMagazine adds a magazine to the current business account
func (c *Client) CreateMagazine(ctx context.Context, req CreateMagazineRequest) (*Magazine, error) {
	var magazine Magazine
	if err := c.Do(ctx, http.MethodPost, "/api/business/magazines", req, &magazine); err != nil {
		return nil, err
	}
	return &magazine, nil
}

// ListPackages returns the packages of the current business account
func (c *Client) ListPackages(ctx context.Context) ([]Package, error) {
	var packages []Package
	if err := c.Do(ctx, http.MethodGet, "/api/business/packages", nil, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// CreatePackage creates a new package sent from one of the account's magazines
func (c *Client) CreatePackage(ctx context.Context, req CreatePackageRequest) (*Package, error) {
	var pkg Package
	if err := c.Do(ctx, http.MethodPost, "/api/business/packages", req, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// TrackPackage returns the public tracking view of a package
func (c *Client) TrackPackage(ctx context.Context, packageID string) (*TrackedPackage, error) {
	var tracked TrackedPackage
	path := fmt.Sprintf("/api/packages/public/track/%s/", url.PathEscape(packageID))
	if err := c.Do(ctx, http.MethodGet, path, nil, &tracked); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("package %s: %w", packageID, ErrNotFound)
		}
		return nil, err
	}
	return &tracked, nil
}

// GetBusinessRequest returns the current user's business request
func (c *Client) GetBusinessRequest(ctx context.Context) (*BusinessRequest, error) {
	var req BusinessRequest
	if err := c.Do(ctx, http.MethodGet, "/api/business/request/", nil, &req); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("business request: %w", ErrNotFound)
		}
		return nil, err
	}
	return &req, nil
}

// SubmitBusinessRequest applies for a business account
func (c *Client) SubmitBusinessRequest(ctx context.Context, req SubmitBusinessRequest) (*BusinessRequest, error) {
	var created BusinessRequest
	if err := c.Do(ctx, http.MethodPost, "/api/business/request/", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListBusinessRequests returns every business request, newest first (admin only)
func (c *Client) ListBusinessRequests(ctx context.Context) ([]BusinessRequest, error) {
	var requests []BusinessRequest
	if err := c.Do(ctx, http.MethodGet, "/api/business/admin/requests", nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ActOnBusinessRequest approves, rejects or deletes a business request (admin only)
func (c *Client) ActOnBusinessRequest(ctx context.Context, requestID, action string) (*BusinessRequestActionResponse, error) {
	switch action {
	case ActionApprove, ActionReject, ActionDelete:
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	var resp BusinessRequestActionResponse
	path := fmt.Sprintf("/api/business/admin/requests/%s/action", url.PathEscape(requestID))
	if err := c.Do(ctx, http.MethodPost, path, map[string]string{"action": action}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.Do(ctx, http.MethodPost, "/accounts/user/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUserPackages returns the parcels sent from the current account, newest first
func (c *Client) ListUserPackages(ctx context.Context) ([]Package, error) {
	var packages []Package
	if err := c.Do(ctx, http.MethodGet, "/api/packages/user/", nil, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// PickupPackage collects a package from its locker. No session is needed.
func (c *Client) PickupPackage(ctx context.Context, req PickupRequest) (*PickupResponse, error) {
	var resp PickupResponse
	if err := c.Do(ctx, http.MethodPost, "/api/packages/public/pickup/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePackageStatus moves a package to a new status (admin only)
func (c *Client) UpdatePackageStatus(ctx context.Context, packageID, status string) (*UpdateStatusResponse, error) {
	var resp UpdateStatusResponse
	path := fmt.Sprintf("/api/admin/packages/%s/update_status/", url.PathEscape(packageID))
	if err := c.Do(ctx, http.MethodPost, path, map[string]string{"status": status}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
