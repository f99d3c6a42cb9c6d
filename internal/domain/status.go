package domain

import "fmt"

// Status is a ticket workflow state.
type Status string

// Ticket statuses in board order
const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusOnHold     Status = "on_hold"
	StatusDone       Status = "done"
	StatusCanceled   Status = "canceled"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusOnHold, StatusDone, StatusCanceled}

// NewStatus validates a status id
func NewStatus(value string) (Status, error) {
	s := Status(value)
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	switch s {
	case StatusNew, StatusInProgress, StatusOnHold, StatusDone, StatusCanceled:
		return nil
	default:
		return fmt.Errorf("invalid status %q: must be new, in_progress, on_hold, done, or canceled", string(s))
	}
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// Label returns the display label
func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusInProgress:
		return "In Progress"
	case StatusOnHold:
		return "On Hold"
	case StatusDone:
		return "Done"
	case StatusCanceled:
		return "Canceled"
	default:
		return string(s)
	}
}

// IsFinished reports whether tickets in this status are closed out
func (s Status) IsFinished() bool {
	return s == StatusDone || s == StatusCanceled
}

// ActiveStatuses returns the statuses shown by default (not finished)
func ActiveStatuses() []Status {
	var active []Status
	for _, s := range Statuses {
		if !s.IsFinished() {
			active = append(active, s)
		}
	}
	return active
}
