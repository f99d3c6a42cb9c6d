package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wsciaroni/opsdeck-cli/internal/health"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, server reachability and sign-in",
	Long: `Run diagnostics to check whether opsdeck can talk to your OpsDeck server.

Checks include:
  • Configuration file and server address
  • Server health endpoint
  • Stored session and whether the server accepts it
  • Active organization

Examples:
  # Run diagnostics
  opsdeck doctor

  # Output as JSON for scripts
  opsdeck doctor --format json
`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

// doctorTimeout bounds each check when no request timeout is configured.
const doctorTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// DoctorReport is the complete diagnostics report.
type DoctorReport struct {
	Checks    []health.Report `json:"checks" yaml:"checks"`
	NextSteps []string        `json:"next_steps" yaml:"next_steps"`
	Status    health.Status   `json:"status" yaml:"status"`
	Healthy   bool            `json:"healthy" yaml:"healthy"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}

	report := a.diagnose(cmd.Context())
	if err := a.render(report); err != nil {
		return err
	}
	if !report.Healthy {
		return fmt.Errorf("health check failed")
	}
	return nil
}

// diagnose checks the server first; session checks only run against a
// reachable server so a dead server is reported once.
func (a *app) diagnose(ctx context.Context) *DoctorReport {
	report := &DoctorReport{NextSteps: []string{}}
	timeout := a.cfg.Timeout
	if timeout <= 0 {
		timeout = doctorTimeout
	}

	connectivity := health.NewManager().WithTimeout(timeout)
	connectivity.AddChecker(health.NewChecker("config", a.checkConfig))
	connectivity.AddChecker(health.NewChecker("server", a.checkServer))
	report.Checks = connectivity.Check(ctx)

	if health.OverallStatus(report.Checks) == health.StatusUnhealthy {
		report.NextSteps = append(report.NextSteps, "Check server_url with 'opsdeck config get server_url'")
	} else {
		// Both checks bootstrap the same store and share one probe.
		account := health.NewManager().WithTimeout(timeout)
		account.AddChecker(health.NewChecker("session", a.checkSession))
		account.AddChecker(health.NewChecker("organization", a.checkOrganization))
		for _, r := range account.Check(ctx) {
			report.Checks = append(report.Checks, r)
			if step, ok := r.Details["next"].(string); ok {
				report.NextSteps = append(report.NextSteps, step)
			}
		}
	}

	report.Status = health.OverallStatus(report.Checks)
	report.Healthy = report.Status != health.StatusUnhealthy
	return report
}

func (a *app) checkConfig(ctx context.Context) *health.Result {
	return health.Healthy(a.cfg.Path()).WithDetail("home", a.cfg.Home)
}

func (a *app) checkServer(ctx context.Context) *health.Result {
	status, err := a.client.Health(ctx)
	if err != nil {
		return health.Unhealthy(fmt.Sprintf("%s: %v", a.cfg.ServerURL, err)).
			WithDetail("url", a.cfg.ServerURL)
	}
	return health.Healthy(fmt.Sprintf("%s (%s)", a.cfg.ServerURL, status.Status)).
		WithDetail("url", a.cfg.ServerURL)
}

func (a *app) checkSession(ctx context.Context) *health.Result {
	saved, err := a.creds.Load(a.cfg.ServerURL)
	switch {
	case err != nil:
		return health.Unhealthy(err.Error())
	case saved == nil:
		return health.Degraded("no stored session").
			WithDetail("next", "Sign in with 'opsdeck auth login'")
	}

	a.session.Bootstrap(ctx)
	user := a.session.User()
	if user == nil {
		return health.Unhealthy("the server rejected the stored session").
			WithDetail("next", "Sign in again with 'opsdeck auth login'")
	}
	return health.Healthy("signed in as " + user.DisplayName()).WithDetail("email", user.Email)
}

func (a *app) checkOrganization(ctx context.Context) *health.Result {
	a.session.Bootstrap(ctx)
	snap := a.session.Snapshot()
	switch {
	case !snap.LoggedIn():
		return health.Degraded("skipped until signed in")
	case snap.ActiveOrganization == nil:
		return health.Degraded("no organization selected").
			WithDetail("next", "Create or join an organization: opsdeck org create <name>")
	}
	org := snap.ActiveOrganization
	return health.Healthy(fmt.Sprintf("%s (%s)", org.Name, org.Role)).
		WithDetail("organizations", len(snap.Organizations))
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func (r *DoctorReport) RenderText(w io.Writer, noColor bool) error {
	paint := func(s lipgloss.Style, text string) string {
		if noColor {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString("OpsDeck diagnostics\n\n")
	for _, c := range r.Checks {
		var icon string
		switch c.Status {
		case health.StatusHealthy:
			icon = paint(okStyle, "✓")
		case health.StatusDegraded:
			icon = paint(warnStyle, "⚠")
		default:
			icon = paint(errStyle, "✗")
		}
		fmt.Fprintf(&b, "  %s %s: %s\n", icon, c.Name, c.Message)
	}

	if len(r.NextSteps) > 0 {
		b.WriteString("\nNext steps:\n")
		for i, step := range r.NextSteps {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}

	b.WriteString("\n")
	if r.Healthy {
		b.WriteString(paint(okStyle, "Ready to use.") + "\n")
	} else {
		b.WriteString(paint(errStyle, "Some checks failed.") + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
