package api

import (
	"context"
	"net/url"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
)

// Public view endpoints authenticate with the link token in the path and
// need no session.

func publicViewPath(token string, parts ...string) string {
	p := "/public/view/" + url.PathEscape(token)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// PublicOrganization returns the organization behind a public view token.
func (c *Client) PublicOrganization(ctx context.Context, token string) (*domain.PublicOrganization, error) {
	var out domain.PublicOrganization
	if err := c.Get(ctx, publicViewPath(token, "organization"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublicTickets lists the tickets visible through a public view token.
func (c *Client) PublicTickets(ctx context.Context, token, search string) ([]domain.Ticket, error) {
	var q url.Values
	if search != "" {
		q = url.Values{"search": {search}}
	}
	var out []domain.Ticket
	if err := c.Get(ctx, publicViewPath(token, "tickets"), q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PublicTicket returns one ticket through a public view token.
func (c *Client) PublicTicket(ctx context.Context, token, ticketID string) (*domain.Ticket, error) {
	var out domain.Ticket
	if err := c.Get(ctx, publicViewPath(token, "tickets", url.PathEscape(ticketID)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublicComments returns a ticket's comments through a public view token.
func (c *Client) PublicComments(ctx context.Context, token, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	if err := c.Get(ctx, publicViewPath(token, "tickets", url.PathEscape(ticketID), "comments"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitPublicTicket files a ticket through a share link.
func (c *Client) SubmitPublicTicket(ctx context.Context, req domain.PublicTicketRequest) (*domain.Ticket, error) {
	var out domain.Ticket
	if err := c.Post(ctx, "/public/tickets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
