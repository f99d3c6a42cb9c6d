package domain

import (
	"fmt"
	"time"
)

// Organization roles, from most to least privileged.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleMember  = "member"
)

// Roles lists the organization roles, most privileged first.
var Roles = []string{RoleOwner, RoleAdmin, RoleManager, RoleStaff, RoleMember}

// ValidateRole checks that role is a known organization role
func ValidateRole(role string) error {
	for _, r := range Roles {
		if r == role {
			return nil
		}
	}
	return fmt.Errorf("invalid role %q: must be owner, admin, manager, staff, or member", role)
}

// Organization is a membership record: the organization plus the
// caller's role within it.
type Organization struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Slug             string    `json:"slug" yaml:"slug"`
	Role             string    `json:"role" yaml:"role"`
	ShareLinkEnabled bool      `json:"share_link_enabled,omitempty" yaml:"share_link_enabled,omitempty"`
	ShareLinkToken   *string   `json:"share_link_token,omitempty" yaml:"share_link_token,omitempty"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" yaml:"updated_at"`
}

// CanManage reports whether the caller may manage members and settings.
func (o Organization) CanManage() bool {
	switch o.Role {
	case RoleOwner, RoleAdmin:
		return true
	default:
		return false
	}
}

// FindOrganization returns the organization with the given id, matching by
// id only so reordering never changes the answer.
func FindOrganization(orgs []Organization, id string) (Organization, bool) {
	if id == "" {
		return Organization{}, false
	}
	for _, o := range orgs {
		if o.ID == id {
			return o, true
		}
	}
	return Organization{}, false
}

// Member is a user listed on an organization's team page.
type Member struct {
	ID        string `json:"id" yaml:"id"`
	Email     string `json:"email" yaml:"email"`
	Name      string `json:"name" yaml:"name"`
	AvatarURL string `json:"avatar_url" yaml:"avatar_url,omitempty"`
	Role      string `json:"role" yaml:"role"`
}

// ShareSettings controls an organization's share link or public view link.
type ShareSettings struct {
	ShareLinkEnabled bool    `json:"share_link_enabled" yaml:"share_link_enabled"`
	ShareLinkToken   *string `json:"share_link_token" yaml:"share_link_token"`
}

// Token returns the share token or "" when none has been issued.
func (s ShareSettings) Token() string {
	if s.ShareLinkToken == nil {
		return ""
	}
	return *s.ShareLinkToken
}
