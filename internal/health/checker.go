// Package health runs the connectivity and session checks behind
// 'opsdeck doctor'.
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewChecker("server", checkServer))
//	for _, r := range manager.Check(ctx) {
//	    fmt.Println(r.Name, r.Status)
//	}
package health

import (
	"context"
	"time"
)

// Checker verifies one thing the client depends on.
type Checker interface {
	// Name is shown next to the result, e.g. "server" or "session".
	Name() string
	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

type Status string

const (
	StatusHealthy Status = "healthy"
	// StatusDegraded means usable with gaps, e.g. signed in with no organization.
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Result is the outcome of one check. Details["next"], when a string, is
// surfaced as a next step for the user.
type Result struct {
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration  `json:"latency" yaml:"latency"`
}

func NewResult(status Status, message string) *Result {
	return &Result{Status: status, Message: message, Details: map[string]any{}}
}

func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

func Healthy(message string) *Result   { return NewResult(StatusHealthy, message) }
func Degraded(message string) *Result  { return NewResult(StatusDegraded, message) }
func Unhealthy(message string) *Result { return NewResult(StatusUnhealthy, message) }

type checkFunc struct {
	name string
	fn   func(ctx context.Context) *Result
}

// NewChecker adapts a function to Checker.
func NewChecker(name string, fn func(ctx context.Context) *Result) Checker {
	return checkFunc{name: name, fn: fn}
}

func (c checkFunc) Name() string                      { return c.name }
func (c checkFunc) Check(ctx context.Context) *Result { return c.fn(ctx) }
