package api

import (
	"context"
	"net/http"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
)

// MeResponse is the identity probe payload.
type MeResponse struct {
	User          *domain.User          `json:"user"`
	Organizations []domain.Organization `json:"organizations"`
}

// Me runs the identity probe. A 401 is returned without notification or
// navigation; callers treat it as "not logged in".
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := c.Get(ctx, MePath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the server to invalidate the session. Failures are returned
// but never shown to the user.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, &call{
		method:      http.MethodPost,
		path:        LogoutPath,
		outsideBase: true,
		quiet:       true,
	}, nil)
}

// HealthStatus is the server health payload.
type HealthStatus struct {
	Status string `json:"status" yaml:"status"`
}

// Health checks that the server is reachable. It does not require a session.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, &call{method: http.MethodGet, path: "/health", quiet: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
