package domain

import "time"

// Ticket is a support ticket as returned by the list and detail endpoints.
type Ticket struct {
	ID             string     `json:"id" yaml:"id"`
	OrganizationID string     `json:"organization_id" yaml:"organization_id"`
	Title          string     `json:"title" yaml:"title"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	Location       string     `json:"location,omitempty" yaml:"location,omitempty"`
	StatusID       Status     `json:"status_id" yaml:"status_id"`
	PriorityID     Priority   `json:"priority_id" yaml:"priority_id"`
	ReporterID     string     `json:"reporter_id,omitempty" yaml:"reporter_id,omitempty"`
	AssigneeUserID *string    `json:"assignee_user_id,omitempty" yaml:"assignee_user_id,omitempty"`
	ReporterName   string     `json:"reporter_name,omitempty" yaml:"reporter_name,omitempty"`
	AssigneeName   string     `json:"assignee_name,omitempty" yaml:"assignee_name,omitempty"`
	Sensitive      bool       `json:"sensitive,omitempty" yaml:"sensitive,omitempty"`
	Files          []File     `json:"files,omitempty" yaml:"files,omitempty"`
	CreatedAt      time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" yaml:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Assignee returns the best available assignee label.
func (t Ticket) Assignee() string {
	if t.AssigneeName != "" {
		return t.AssigneeName
	}
	if t.AssigneeUserID != nil && *t.AssigneeUserID != "" {
		return *t.AssigneeUserID
	}
	return "Unassigned"
}

// File is metadata for an attachment; contents are fetched separately.
type File struct {
	ID          string    `json:"id" yaml:"id"`
	TicketID    string    `json:"ticket_id" yaml:"ticket_id"`
	Filename    string    `json:"filename" yaml:"filename"`
	ContentType string    `json:"content_type" yaml:"content_type"`
	Size        int64     `json:"size" yaml:"size"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// CreateTicketRequest is the body of POST /tickets.
type CreateTicketRequest struct {
	OrganizationID string   `json:"organization_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	PriorityID     Priority `json:"priority_id"`
	Location       string   `json:"location,omitempty"`
	Sensitive      bool     `json:"sensitive,omitempty"`
}

// UpdateTicketRequest is the body of PATCH /tickets/{id}; nil fields are left alone.
type UpdateTicketRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	PriorityID  *Priority `json:"priority_id,omitempty"`
	StatusID    *Status   `json:"status_id,omitempty"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
	Location    *string   `json:"location,omitempty"`
	Sensitive   *bool     `json:"sensitive,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (r UpdateTicketRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.PriorityID == nil && r.StatusID == nil &&
		r.AssigneeID == nil && r.Location == nil && r.Sensitive == nil
}

// PublicTicketRequest is the body of POST /public/tickets.
type PublicTicketRequest struct {
	Token       string   `json:"token"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PriorityID  Priority `json:"priority_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
}
