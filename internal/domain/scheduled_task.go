package domain

import (
	"fmt"
	"time"
)

// Frequency is how often a scheduled task creates a ticket.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Validate checks if the frequency is valid
func (f Frequency) Validate() error {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return nil
	default:
		return fmt.Errorf("invalid frequency %q: must be daily, weekly, monthly, or yearly", string(f))
	}
}

// ScheduledTask is a recurring ticket template.
type ScheduledTask struct {
	ID             string    `json:"id" yaml:"id"`
	OrganizationID string    `json:"organization_id" yaml:"organization_id"`
	Title          string    `json:"title" yaml:"title"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
	Frequency      Frequency `json:"frequency" yaml:"frequency"`
	StartDate      time.Time `json:"start_date" yaml:"start_date"`
	NextRunAt      time.Time `json:"next_run_at" yaml:"next_run_at"`
	CreatedBy      string    `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	AssigneeUserID *string   `json:"assignee_user_id,omitempty" yaml:"assignee_user_id,omitempty"`
	PriorityID     Priority  `json:"priority_id" yaml:"priority_id"`
	Location       string    `json:"location,omitempty" yaml:"location,omitempty"`
	Enabled        bool      `json:"enabled" yaml:"enabled"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at"`
}

// CreateScheduledTaskRequest is the body of POST /scheduled-tasks.
type CreateScheduledTaskRequest struct {
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Frequency      Frequency `json:"frequency"`
	StartDate      time.Time `json:"start_date"`
	PriorityID     Priority  `json:"priority_id"`
	AssigneeUserID *string   `json:"assignee_user_id,omitempty"`
	Location       string    `json:"location,omitempty"`
	Enabled        bool      `json:"enabled"`
}

// UpdateScheduledTaskRequest is the body of PATCH /scheduled-tasks/{id}.
type UpdateScheduledTaskRequest struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Frequency      *Frequency `json:"frequency,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	PriorityID     *Priority  `json:"priority_id,omitempty"`
	AssigneeUserID *string    `json:"assignee_user_id,omitempty"`
	Location       *string    `json:"location,omitempty"`
	Enabled        *bool      `json:"enabled,omitempty"`
}
