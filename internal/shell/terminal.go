package shell

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))
)

// TerminalNotifier writes notifications as single styled lines.
type TerminalNotifier struct {
	mu      sync.Mutex
	w       io.Writer
	noColor bool
}

// NewTerminalNotifier creates a notifier writing to w (normally stderr).
func NewTerminalNotifier(w io.Writer, noColor bool) *TerminalNotifier {
	return &TerminalNotifier{w: w, noColor: noColor}
}

// Error writes an error notification.
func (n *TerminalNotifier) Error(message string) {
	n.write(errorStyle, "✗ ", message)
}

// Success writes a success notification.
func (n *TerminalNotifier) Success(message string) {
	n.write(successStyle, "✓ ", message)
}

func (n *TerminalNotifier) write(style lipgloss.Style, prefix, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	line := prefix + strings.TrimSpace(message)
	if !n.noColor {
		line = style.Render(line)
	}
	fmt.Fprintln(n.w, line)
}

// TerminalNavigator turns navigation commands into instructions for the
// user, since a CLI cannot move between views on its own.
type TerminalNavigator struct {
	mu        sync.Mutex
	w         io.Writer
	serverURL string
	current   Route
	noColor   bool
}

// NewTerminalNavigator creates a navigator for a command showing the given view.
func NewTerminalNavigator(w io.Writer, serverURL string, current Route, noColor bool) *TerminalNavigator {
	return &TerminalNavigator{
		w:         w,
		serverURL: strings.TrimRight(serverURL, "/"),
		current:   current,
		noColor:   noColor,
	}
}

// Navigate prints what the user should do to reach the route.
func (n *TerminalNavigator) Navigate(to Route) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var msg string
	switch to {
	case RouteLogin:
		msg = "Your session is not valid. Run 'opsdeck auth login' to sign in."
	case RouteLoginEntry:
		msg = fmt.Sprintf("Open %s%s in your browser to sign in, then run 'opsdeck auth login --session <session_id cookie>'.",
			n.serverURL, RouteLoginEntry)
	default:
		msg = fmt.Sprintf("Continue at %s%s", n.serverURL, to)
	}
	if !n.noColor {
		msg = hintStyle.Render(msg)
	}
	fmt.Fprintln(n.w, msg)
	n.current = to
}

// Current returns the route the command represents.
func (n *TerminalNavigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

var (
	_ Navigator = (*TerminalNavigator)(nil)
	_ Notifier  = (*TerminalNotifier)(nil)
)
