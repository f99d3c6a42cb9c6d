// Package ticketview composes the ticket list and board views: filtering,
// sorting and grouping of an already fetched ticket list.
package ticketview

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/wsciaroni/opsdeck-cli/internal/api"
	"github.com/wsciaroni/opsdeck-cli/internal/domain"
)

// SortField is a ticket attribute the list can be ordered by.
type SortField string

const (
	SortCreated  SortField = "created_at"
	SortUpdated  SortField = "updated_at"
	SortPriority SortField = "priority"
	SortStatus   SortField = "status"
	SortTitle    SortField = "title"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Filter selects and orders tickets. Empty Statuses means the active
// (unfinished) statuses; empty Priorities means all.
type Filter struct {
	Statuses   []domain.Status
	Priorities []domain.Priority
	AssigneeID string
	Search     string
	SortBy     SortField
	Order      SortOrder
}

// DefaultFilter shows active tickets, newest first.
func DefaultFilter() Filter {
	return Filter{SortBy: SortCreated, Order: Desc}
}

// ParseSort parses "field" or "field-order", e.g. "priority-desc".
func ParseSort(s string) (SortField, SortOrder, error) {
	field, order, found := strings.Cut(s, "-")
	if !found {
		order = string(Desc)
	}
	switch SortField(field) {
	case SortCreated, SortUpdated, SortPriority, SortStatus, SortTitle:
	default:
		return "", "", fmt.Errorf("invalid sort field %q: must be created_at, updated_at, priority, status, or title", field)
	}
	switch SortOrder(order) {
	case Asc, Desc:
	default:
		return "", "", fmt.Errorf("invalid sort order %q: must be asc or desc", order)
	}
	return SortField(field), SortOrder(order), nil
}

// Validate checks every status and priority in the filter.
func (f Filter) Validate() error {
	for _, s := range f.Statuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, p := range f.Priorities {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveStatuses returns the statuses the filter admits.
func (f Filter) EffectiveStatuses() []domain.Status {
	if len(f.Statuses) == 0 {
		return domain.ActiveStatuses()
	}
	return f.Statuses
}

// Query converts the filter into a server-side list query for orgID.
func (f Filter) Query(orgID string) api.TicketQuery {
	return api.TicketQuery{
		OrganizationID: orgID,
		Statuses:       f.EffectiveStatuses(),
		Priorities:     f.Priorities,
		Search:         f.Search,
		AssigneeID:     f.AssigneeID,
		SortBy:         string(f.SortBy),
		SortOrder:      string(f.Order),
	}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t domain.Ticket) bool {
	if !slices.Contains(f.EffectiveStatuses(), t.StatusID) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.PriorityID) {
		return false
	}
	if f.AssigneeID != "" && (t.AssigneeUserID == nil || *t.AssigneeUserID != f.AssigneeID) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

// Apply returns the matching tickets in filter order. The input is not modified.
func (f Filter) Apply(tickets []domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	Sort(out, f.SortBy, f.Order)
	return out
}

// Sort orders tickets in place. Ties keep their existing order.
func Sort(tickets []domain.Ticket, field SortField, order SortOrder) {
	if field == "" {
		return
	}
	slices.SortStableFunc(tickets, func(a, b domain.Ticket) int {
		c := compare(a, b, field)
		if order == Desc {
			return -c
		}
		return c
	})
}

func compare(a, b domain.Ticket, field SortField) int {
	switch field {
	case SortUpdated:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortPriority:
		return cmp.Compare(a.PriorityID.Level(), b.PriorityID.Level())
	case SortStatus:
		return cmp.Compare(statusRank(a.StatusID), statusRank(b.StatusID))
	case SortTitle:
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func statusRank(s domain.Status) int {
	if i := slices.Index(domain.Statuses, s); i >= 0 {
		return i
	}
	return len(domain.Statuses)
}
