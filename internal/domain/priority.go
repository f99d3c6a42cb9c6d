package domain

import (
	"fmt"
	"slices"
)

// Priority is a ticket or scheduled-task priority id.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

var priorityLabels = map[Priority]string{
	PriorityLow:      "Low",
	PriorityMedium:   "Medium",
	PriorityHigh:     "High",
	PriorityCritical: "Critical",
}

// NewPriority validates a priority id.
func NewPriority(value string) (Priority, error) {
	p := Priority(value)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

func (p Priority) Validate() error {
	if _, ok := priorityLabels[p]; !ok {
		return fmt.Errorf("invalid priority %q: must be low, medium, high, or critical", string(p))
	}
	return nil
}

// Label falls back to the raw id for priorities the client does not know.
func (p Priority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

// Level ranks urgency from 1 (low) to 4 (critical); unknown ids rank 0.
func (p Priority) Level() int {
	return slices.Index(Priorities, p) + 1
}
