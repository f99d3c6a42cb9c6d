package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wsciaroni/opsdeck-cli/internal/credentials"
	"github.com/wsciaroni/opsdeck-cli/internal/domain"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
	"github.com/wsciaroni/opsdeck-cli/internal/tui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in and out of OpsDeck",
	Long: `Sign in and out of OpsDeck.

OpsDeck signs users in through its web login. After signing in in your
browser, copy the value of the session_id cookie and hand it to
'opsdeck auth login --session'. The session is stored in
~/.opsdeck/credentials.json with owner-only permissions.

Examples:
  opsdeck auth login
  opsdeck auth login --session 3f1c...
  opsdeck auth status
  opsdeck auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a browser session",
	Long: `Sign in with a browser session.

Without --session, opsdeck shows the server's login address and, in an
interactive terminal, asks for the session cookie once you have signed in.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Long: `Sign out and forget the stored session.

The server is asked to end the session. The local session is removed even
when the server cannot be reached.`,
	RunE: runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who you are signed in as",
	RunE:  runAuthStatus,
}

func init() {
	authLoginCmd.Flags().String("session", "", "value of the session_id cookie from your browser")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)

	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteLogin)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	sessionID, _ := cmd.Flags().GetString("session")
	sessionID = strings.TrimSpace(sessionID)

	if sessionID == "" {
		a.session.Login(ctx)
		if !tuiShouldPrompt() {
			return nil
		}
		sessionID, err = tuiPrompt(tui.Prompt{
			Message:     "Paste the session_id cookie",
			Placeholder: "session_id",
			Required:    true,
		})
		if err != nil {
			return err
		}
		sessionID = strings.TrimSpace(sessionID)
	}

	creds := credentials.Credentials{ServerURL: a.cfg.ServerURL, SessionID: sessionID}
	if err := creds.Apply(a.client.Jar()); err != nil {
		return err
	}

	user, err := a.requireUser(ctx)
	if err != nil {
		return oderrors.New(oderrors.ErrCodeSessionExpired, "the server did not accept this session").
			WithSuggestion("Sign in again in your browser and copy a fresh session_id cookie")
	}

	if err := a.rememberSession(); err != nil {
		return err
	}

	a.success("Logged in to %s as %s", a.cfg.ServerURL, user.DisplayName())
	if a.session.NeedsOrganization() {
		a.notifier.Error("You are not a member of any organization yet. Run 'opsdeck org create <name>'")
		return nil
	}
	a.success("Active organization: %s", a.session.ActiveOrganization().Name)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}

	a.session.Logout(cmd.Context())
	a.success("Logged out of %s", a.cfg.ServerURL)
	return nil
}

// authStatus is the output of 'auth status'.
type authStatus struct {
	Server             string               `json:"server" yaml:"server"`
	LoggedIn           bool                 `json:"logged_in" yaml:"logged_in"`
	User               *domain.User         `json:"user,omitempty" yaml:"user,omitempty"`
	ActiveOrganization *domain.Organization `json:"active_organization,omitempty" yaml:"active_organization,omitempty"`
	Organizations      int                  `json:"organizations" yaml:"organizations"`
}

func (s authStatus) RenderText(w io.Writer, noColor bool) error {
	if !s.LoggedIn {
		_, err := fmt.Fprintf(w, "Not logged in to %s\n", s.Server)
		return err
	}
	if _, err := fmt.Fprintf(w, "Logged in to %s as %s <%s>\n", s.Server, s.User.DisplayName(), s.User.Email); err != nil {
		return err
	}
	if s.ActiveOrganization == nil {
		_, err := fmt.Fprintf(w, "No active organization (%d available)\n", s.Organizations)
		return err
	}
	_, err := fmt.Fprintf(w, "Active organization: %s (%s, %s) of %d\n",
		s.ActiveOrganization.Name, s.ActiveOrganization.Slug, s.ActiveOrganization.Role, s.Organizations)
	return err
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}

	a.session.Bootstrap(cmd.Context())
	snap := a.session.Snapshot()

	return a.render(authStatus{
		Server:             a.cfg.ServerURL,
		LoggedIn:           snap.LoggedIn(),
		User:               snap.User,
		ActiveOrganization: snap.ActiveOrganization,
		Organizations:      len(snap.Organizations),
	})
}
