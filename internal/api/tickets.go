package api

import (
	"context"
	"net/url"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
)

// TicketQuery filters the ticket list on the server.
type TicketQuery struct {
	OrganizationID string
	Statuses       []domain.Status
	Priorities     []domain.Priority
	Search         string
	AssigneeID     string
	SortBy         string
	SortOrder      string
}

// Values encodes the query string.
func (q TicketQuery) Values() url.Values {
	v := url.Values{}
	if q.OrganizationID != "" {
		v.Set("organization_id", q.OrganizationID)
	}
	for _, s := range q.Statuses {
		v.Add("status", string(s))
	}
	for _, p := range q.Priorities {
		v.Add("priority", string(p))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.AssigneeID != "" {
		v.Set("assignee_id", q.AssigneeID)
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sort_order", q.SortOrder)
	}
	return v
}

// ListTickets returns the tickets matching q.
func (c *Client) ListTickets(ctx context.Context, q TicketQuery) ([]domain.Ticket, error) {
	var out []domain.Ticket
	if err := c.Get(ctx, "/tickets", q.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTicket returns one ticket.
func (c *Client) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	var out domain.Ticket
	if err := c.Get(ctx, "/tickets/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTicket opens a ticket in the request's organization.
func (c *Client) CreateTicket(ctx context.Context, req domain.CreateTicketRequest) (*domain.Ticket, error) {
	var out domain.Ticket
	if err := c.Post(ctx, "/tickets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTicket patches a ticket.
func (c *Client) UpdateTicket(ctx context.Context, id string, req domain.UpdateTicketRequest) (*domain.Ticket, error) {
	var out domain.Ticket
	if err := c.Patch(ctx, "/tickets/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportTickets downloads the organization's tickets as CSV.
func (c *Client) ExportTickets(ctx context.Context, orgID string) ([]byte, error) {
	return c.GetRaw(ctx, "/admin/export/tickets", url.Values{"organization_id": {orgID}})
}
