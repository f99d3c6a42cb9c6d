package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"github.com/spf13/cobra"

	"github.com/wsciaroni/opsdeck-cli/internal/api"
	"github.com/wsciaroni/opsdeck-cli/internal/config"
	"github.com/wsciaroni/opsdeck-cli/internal/credentials"
	"github.com/wsciaroni/opsdeck-cli/internal/domain"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/log"
	"github.com/wsciaroni/opsdeck-cli/internal/prefs"
	"github.com/wsciaroni/opsdeck-cli/internal/session"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
	"github.com/wsciaroni/opsdeck-cli/internal/ux"
)

// testTransport replaces the HTTP transport in command tests.
var testTransport http.RoundTripper

// app wires the session store, the gateway and the terminal shell for one
// command invocation.
type app struct {
	cfg       *config.Config
	flags     *CommandContext
	logger    *log.Logger
	notifier  shell.Notifier
	navigator shell.Navigator
	client    *api.Client
	creds     *credentials.File
	state     prefs.Store
	session   *session.Store
	out       io.Writer
	// sessionID is the cookie value last read from or written to creds.
	sessionID string
}

// newApp builds the command's collaborators. current is the view the
// command represents; the gateway uses it to avoid redirect loops.
func newApp(cmd *cobra.Command, current shell.Route) (*app, error) {
	flags, err := NewCommandContext(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create command context: %w", err)
	}

	cfg, err := config.Load(cmd.Context(), config.LoadOptions{Home: flags.Home})
	if err != nil {
		return nil, err
	}
	if flags.ServerURL != "" {
		cfg.ServerURL = flags.ServerURL
	}
	if flags.Format != "" {
		cfg.Output.Format = flags.Format
	}
	if flags.NoColor {
		cfg.Output.NoColor = true
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg := log.FromStrings(cfg.Log.Level, cfg.Log.Format)
	logCfg.Output = cmd.ErrOrStderr()
	logger := log.New(logCfg).With("command", cmd.CommandPath())
	log.SetDefaultLogger(logger)

	notifier := shell.NewTerminalNotifier(cmd.ErrOrStderr(), cfg.Output.NoColor)
	navigator := shell.NewTerminalNavigator(cmd.ErrOrStderr(), cfg.ServerURL, current, cfg.Output.NoColor)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	creds := credentials.NewFile(cfg.CredentialsPath())
	saved, err := creds.Load(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	var sessionID string
	if saved != nil {
		if err := saved.Apply(jar); err != nil {
			return nil, err
		}
		sessionID = saved.SessionID
	}

	client, err := api.NewClient(api.Options{
		ServerURL: cfg.ServerURL,
		Timeout:   cfg.Timeout,
		Attempts:  cfg.Attempts(),
		Jar:       jar,
		Transport: testTransport,
		Notifier:  notifier,
		Navigator: navigator,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	state, err := prefs.OpenFileStore(cfg.StatePath())
	if err != nil {
		return nil, err
	}

	store := session.New(session.Options{
		Gateway:          client,
		Prefs:            state,
		Navigator:        navigator,
		Logger:           logger,
		BootstrapTimeout: cfg.BootstrapTimeout,
		ForgetSession:    creds.Clear,
	})

	return &app{
		cfg:       cfg,
		flags:     flags,
		logger:    logger,
		notifier:  notifier,
		navigator: navigator,
		client:    client,
		creds:     creds,
		state:     state,
		session:   store,
		out:       cmd.OutOrStdout(),
		sessionID: sessionID,
	}, nil
}

// requireUser bootstraps the session and fails when nobody is logged in.
func (a *app) requireUser(ctx context.Context) (*domain.User, error) {
	a.session.Bootstrap(ctx)
	user := a.session.User()
	if user == nil {
		return nil, oderrors.NewNotLoggedInError()
	}
	if err := a.rememberSession(); err != nil {
		a.logger.WithError(err).Warn("failed to store the rotated session")
	}
	return user, nil
}

// rememberSession stores the session cookie now held by the jar when the
// server has set a different one.
func (a *app) rememberSession() error {
	current, ok := credentials.FromJar(a.client.Jar(), a.cfg.ServerURL)
	if !ok || current.SessionID == a.sessionID {
		return nil
	}
	if err := a.creds.Save(current); err != nil {
		return err
	}
	a.sessionID = current.SessionID
	return nil
}

// requireOrg bootstraps the session and resolves the organization the
// command acts on: the --org flag (id or slug) when given, else the active one.
func (a *app) requireOrg(ctx context.Context) (*domain.Organization, error) {
	if _, err := a.requireUser(ctx); err != nil {
		return nil, err
	}

	if a.flags.Org != "" {
		for _, o := range a.session.Organizations() {
			if o.ID == a.flags.Org || o.Slug == a.flags.Org {
				org := o
				return &org, nil
			}
		}
		return nil, oderrors.NewOrgNotMemberError(a.flags.Org)
	}

	org := a.session.ActiveOrganization()
	if org == nil {
		return nil, oderrors.NewNoOrganizationError()
	}
	return org, nil
}

// render writes data in the configured output format.
func (a *app) render(data any) error {
	formatter, err := ux.NewFormatter(a.cfg.Output.Format, &ux.FormatterOptions{
		Writer:  a.out,
		NoColor: a.cfg.Output.NoColor,
	})
	if err != nil {
		return err
	}
	return formatter.Format(data)
}

// success reports a completed action unless --quiet is set.
func (a *app) success(format string, args ...any) {
	if a.flags.Quiet {
		return
	}
	a.notifier.Success(fmt.Sprintf(format, args...))
}

// confirm asks before destructive actions. Non-interactive sessions must
// pass --yes.
func (a *app) confirm(message string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !tuiShouldPrompt() {
		return false, oderrors.New(oderrors.ErrCodeAPIInvalidInput, "confirmation required").
			WithSuggestion("Re-run with --yes to confirm in non-interactive sessions")
	}
	return tuiConfirm(message, false)
}
