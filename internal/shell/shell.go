// Package shell holds the hosting-shell contracts that the session store and
// the API gateway depend on instead of a concrete terminal or browser.
package shell

import "sync"

// Route identifies a view the host can show.
type Route string

const (
	// RouteHome is the default authenticated view
	RouteHome Route = "/"
	// RouteLogin is the client's own login view
	RouteLogin Route = "/login"
	// RouteLoginEntry is the server-side login entry point (full-page, leaves the client)
	RouteLoginEntry Route = "/auth/login"
)

// Navigator carries out navigation commands issued by the core.
type Navigator interface {
	// Navigate moves the host to the given route
	Navigate(to Route)
	// Current reports the route the host is showing
	Current() Route
}

// Notifier shows transient, user-visible messages.
type Notifier interface {
	Error(message string)
	Success(message string)
}

// Recorder is an in-memory Navigator and Notifier that remembers every
// command it receives. Hosts without a UI and tests use it.
type Recorder struct {
	mu          sync.Mutex
	current     Route
	navigations []Route
	errors      []string
	successes   []string
}

// NewRecorder creates a Recorder whose current view is start.
func NewRecorder(start Route) *Recorder {
	return &Recorder{current: start}
}

// Navigate records the navigation and makes to the current route.
func (r *Recorder) Navigate(to Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, to)
	r.current = to
}

// Current returns the current route.
func (r *Recorder) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Error records an error notification.
func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

// Success records a success notification.
func (r *Recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, message)
}

// Navigations returns a copy of the recorded navigations.
func (r *Recorder) Navigations() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.navigations...)
}

// Errors returns a copy of the recorded error notifications.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

// Successes returns a copy of the recorded success notifications.
func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

var (
	_ Navigator = (*Recorder)(nil)
	_ Notifier  = (*Recorder)(nil)
)
