package api

import (
	"context"
	"net/url"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
)

// CreateOrganizationRequest is the body of POST /organizations.
type CreateOrganizationRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func orgPath(orgID string, parts ...string) string {
	p := "/organizations/" + url.PathEscape(orgID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// CreateOrganization creates an organization owned by the caller.
func (c *Client) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*domain.Organization, error) {
	var out domain.Organization
	if err := c.Post(ctx, "/organizations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMembers returns the members of an organization.
func (c *Client) ListMembers(ctx context.Context, orgID string) ([]domain.Member, error) {
	var out []domain.Member
	if err := c.Get(ctx, orgPath(orgID, "members"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// AddMember adds an existing user to the organization by email.
func (c *Client) AddMember(ctx context.Context, orgID, email, role string) error {
	return c.Post(ctx, orgPath(orgID, "members"), addMemberRequest{Email: email, Role: role}, nil)
}

// RemoveMember removes a user from the organization.
func (c *Client) RemoveMember(ctx context.Context, orgID, userID string) error {
	return c.Delete(ctx, orgPath(orgID, "members", url.PathEscape(userID)))
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateMemberRole changes a member's role.
func (c *Client) UpdateMemberRole(ctx context.Context, orgID, userID, role string) error {
	return c.Put(ctx, orgPath(orgID, "members", url.PathEscape(userID), "role"), updateRoleRequest{Role: role}, nil)
}

type linkToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// LinkKind selects the share link or the public view link of an organization.
type LinkKind string

const (
	LinkShare      LinkKind = "share"
	LinkPublicView LinkKind = "public-view"
)

// LinkSettings returns the link settings of the given kind.
func (c *Client) LinkSettings(ctx context.Context, orgID string, kind LinkKind) (*domain.ShareSettings, error) {
	var out domain.ShareSettings
	if err := c.Get(ctx, orgPath(orgID, string(kind)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetLinkEnabled enables or disables the link.
func (c *Client) SetLinkEnabled(ctx context.Context, orgID string, kind LinkKind, enabled bool) (*domain.ShareSettings, error) {
	var out domain.ShareSettings
	if err := c.Put(ctx, orgPath(orgID, string(kind)), linkToggleRequest{Enabled: enabled}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegenerateLink issues a new token, invalidating the old one.
func (c *Client) RegenerateLink(ctx context.Context, orgID string, kind LinkKind) (*domain.ShareSettings, error) {
	var out domain.ShareSettings
	if err := c.Post(ctx, orgPath(orgID, string(kind), "regenerate"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
