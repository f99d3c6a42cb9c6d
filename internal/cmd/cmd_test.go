package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsciaroni/opsdeck-cli/internal/api"
	"github.com/wsciaroni/opsdeck-cli/internal/credentials"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/prefs"
)

const testServer = "http://opsdeck.test"

const meBody = `{
	"user": {"id": "u1", "email": "ada@example.com", "name": "Ada"},
	"organizations": [
		{"id": "o1", "name": "One", "slug": "one", "role": "owner"},
		{"id": "o2", "name": "Two", "slug": "two", "role": "staff"}
	]
}`

// cli runs the real command tree against a mock server in a temporary home.
type cli struct {
	t         *testing.T
	home      string
	transport *httpmock.MockTransport
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	transport := httpmock.NewMockTransport()
	testTransport = transport
	prevPrompt := tuiShouldPrompt
	tuiShouldPrompt = func() bool { return false }
	t.Cleanup(func() {
		testTransport = nil
		tuiShouldPrompt = prevPrompt
	})

	return &cli{t: t, home: t.TempDir(), transport: transport}
}

// login stores a session as a previous 'auth login' would have.
func (c *cli) login(sessionID string) {
	c.t.Helper()
	err := credentials.NewFile(filepath.Join(c.home, "credentials.json")).
		Save(credentials.Credentials{ServerURL: testServer, SessionID: sessionID})
	require.NoError(c.t, err)
}

// serveMe answers the identity probe, requiring the stored session cookie.
func (c *cli) serveMe(body string) {
	c.transport.RegisterResponder(http.MethodGet, testServer+"/api/me",
		func(req *http.Request) (*http.Response, error) {
			if cookie, err := req.Cookie(credentials.CookieName); err != nil || cookie.Value == "" {
				return httpmock.NewStringResponse(http.StatusUnauthorized, `{"error":"unauthorized"}`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, body), nil
		})
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--home", c.home, "--server", testServer, "--no-color"}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag in the tree, since commands are package globals.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func subcommandNames(cmd *cobra.Command) []string {
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	return names
}

func TestCommandTree(t *testing.T) {
	tests := []struct {
		cmd  *cobra.Command
		subs []string
	}{
		{rootCmd, []string{"auth", "org", "tickets", "comments", "tasks", "public", "config", "doctor", "version", "completion"}},
		{authCmd, []string{"login", "logout", "status"}},
		{orgCmd, []string{"list", "switch", "create", "members", "add-member", "remove-member", "set-role", "share", "public-view"}},
		{ticketsCmd, []string{"list", "board", "show", "create", "update", "export"}},
		{commentsCmd, []string{"list", "add"}},
		{tasksCmd, []string{"list", "create", "update", "delete"}},
		{publicCmd, []string{"org", "tickets", "show", "comments", "submit"}},
		{configCmd, []string{"view", "edit", "get", "set", "path"}},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name(), func(t *testing.T) {
			names := subcommandNames(tt.cmd)
			for _, sub := range tt.subs {
				assert.Contains(t, names, sub)
			}
		})
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"server", "home", "format", "no-color", "log-level", "org", "quiet"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %q", name)
	}
}

func TestAuthStatus_NotLoggedIn(t *testing.T) {
	c := newCLI(t)
	c.serveMe(meBody)

	stdout, stderr, err := c.run("auth", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not logged in to "+testServer)
	assert.Empty(t, stderr, "the probe's 401 is not an error for the user")
}

func TestAuthStatus_LoggedIn(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)

	stdout, _, err := c.run("auth", "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged in to "+testServer+" as Ada <ada@example.com>")
	assert.Contains(t, stdout, "Active organization: One (one, owner) of 2")
}

func TestAuthLogin_WithSession(t *testing.T) {
	c := newCLI(t)
	c.serveMe(meBody)

	_, stderr, err := c.run("auth", "login", "--session", "fresh")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Logged in to "+testServer+" as Ada")

	saved, err := credentials.NewFile(filepath.Join(c.home, "credentials.json")).Load(testServer)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "fresh", saved.SessionID)
}

func TestAuthLogin_NoOrganizationYet(t *testing.T) {
	c := newCLI(t)
	c.serveMe(`{"user": {"id": "u1", "email": "ada@example.com", "name": "Ada"}, "organizations": []}`)

	_, stderr, err := c.run("auth", "login", "--session", "fresh")
	require.NoError(t, err)
	assert.Contains(t, stderr, "not a member of any organization yet")
	assert.NotContains(t, stderr, "Active organization")
}

func (c *cli) savedSession() *credentials.Credentials {
	c.t.Helper()
	saved, err := credentials.NewFile(filepath.Join(c.home, "credentials.json")).Load(testServer)
	require.NoError(c.t, err)
	require.NotNil(c.t, saved)
	return saved
}

func TestRotatedSessionIsStored(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.transport.RegisterResponder(http.MethodGet, testServer+"/api/me",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusOK, meBody)
			resp.Header.Set("Set-Cookie", credentials.CookieName+"=s2; Path=/; HttpOnly")
			return resp, nil
		})

	_, _, err := c.run("org", "list")
	require.NoError(t, err)
	assert.Equal(t, "s2", c.savedSession().SessionID)
}

func TestUnchangedSessionIsNotRewritten(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)
	before := c.savedSession()

	_, _, err := c.run("org", "list")
	require.NoError(t, err)

	after := c.savedSession()
	assert.Equal(t, "s1", after.SessionID)
	assert.True(t, before.SavedAt.Equal(after.SavedAt))
}

func TestAuthLogin_WithoutSessionShowsLoginEntry(t *testing.T) {
	c := newCLI(t)

	_, stderr, err := c.run("auth", "login")
	require.NoError(t, err)
	assert.Contains(t, stderr, testServer+"/auth/login")
	assert.Zero(t, c.transport.GetTotalCallCount())
}

func TestAuthLogout_ForgetsSessionEvenWhenServerFails(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.transport.RegisterResponder(http.MethodPost, testServer+"/auth/logout",
		httpmock.NewStringResponder(http.StatusInternalServerError, `{"error":"boom"}`))

	_, stderr, err := c.run("auth", "logout")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "✗", "logout failures are not shown")

	_, statErr := os.Stat(filepath.Join(c.home, "credentials.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOrgSwitch_RemembersSelection(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)

	_, stderr, err := c.run("org", "switch", "two")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Switched to Two")

	state, err := prefs.OpenFileStore(filepath.Join(c.home, "state.yaml"))
	require.NoError(t, err)
	id, ok := state.Get(prefs.LastOrgID)
	require.True(t, ok)
	assert.Equal(t, "o2", id)

	stdout, _, err := c.run("org", "list")
	require.NoError(t, err)
	assert.Regexp(t, `\*\s+o2\s+Two`, stdout)
}

func TestOrgSwitch_UnknownOrganization(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)

	_, _, err := c.run("org", "switch", "nope")
	require.Error(t, err)
	assert.True(t, oderrors.HasCode(err, oderrors.ErrCodeOrgNotMember))
}

func TestTicketsList_QueriesActiveOrganization(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)
	c.transport.RegisterResponder(http.MethodGet, testServer+"/api/tickets",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "o1", q.Get("organization_id"))
			assert.Equal(t, []string{"new", "in_progress", "on_hold"}, q["status"])
			return httpmock.NewStringResponse(http.StatusOK, `[
				{"id": "t1", "title": "Leaking tap", "status_id": "new", "priority_id": "high", "created_at": "2026-10-01T09:00:00Z"},
				{"id": "t2", "title": "Old job", "status_id": "done", "priority_id": "low", "created_at": "2026-09-01T09:00:00Z"}
			]`), nil
		})

	stdout, _, err := c.run("tickets", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Leaking tap")
	assert.NotContains(t, stdout, "Old job", "finished tickets are hidden by default")
}

func TestTicketsList_OrgFlagBySlug(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)
	c.transport.RegisterResponder(http.MethodGet, testServer+"/api/tickets",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "o2", req.URL.Query().Get("organization_id"))
			return httpmock.NewStringResponse(http.StatusOK, `[]`), nil
		})

	stdout, _, err := c.run("tickets", "list", "--org", "two")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No tickets match.")
}

func TestTicketsList_NoOrganization(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(`{"user": {"id": "u1", "email": "ada@example.com", "name": "Ada"}, "organizations": []}`)

	_, _, err := c.run("tickets", "list")
	require.Error(t, err)
	assert.True(t, oderrors.HasCode(err, oderrors.ErrCodeNoOrganization))
}

func TestTicketsList_NotLoggedIn(t *testing.T) {
	c := newCLI(t)
	c.serveMe(meBody)

	_, _, err := c.run("tickets", "list")
	require.Error(t, err)
	assert.True(t, oderrors.HasCode(err, oderrors.ErrCodeNotLoggedIn))
}

func TestTicketsList_InvalidSort(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run("tickets", "list", "--sort", "colour")
	require.Error(t, err)
	assert.True(t, oderrors.HasCode(err, oderrors.ErrCodeAPIInvalidInput))
	assert.Zero(t, c.transport.GetTotalCallCount())
}

func TestExpiredSession_NotifiesAndPointsToLogin(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)
	c.transport.RegisterResponder(http.MethodGet, testServer+"/api/scheduled-tasks",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"error":"session expired"}`))

	_, stderr, err := c.run("tasks", "list")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.True(t, api.WasNotified(err))
	assert.Contains(t, stderr, "session expired")
	assert.Contains(t, stderr, "opsdeck auth login")
}

func TestTicketsCreate_RequiresTitleWhenNotInteractive(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)

	_, _, err := c.run("tickets", "create")
	require.Error(t, err)
	assert.True(t, oderrors.HasCode(err, oderrors.ErrCodeAPIInvalidInput))
}

func TestTicketsCreate(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)
	c.transport.RegisterResponder(http.MethodPost, testServer+"/api/tickets",
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			assert.JSONEq(t, `{"organization_id":"o1","title":"Broken door","description":"","priority_id":"high"}`, string(body))
			return httpmock.NewStringResponse(http.StatusCreated,
				`{"id": "t9", "title": "Broken door", "status_id": "new", "priority_id": "high"}`), nil
		})

	stdout, stderr, err := c.run("tickets", "create", "--title", "Broken door", "--priority", "high")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Opened ticket t9 in One")
	assert.Contains(t, stdout, "Broken door")
}

func TestTicketsUpdate_NothingToUpdate(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run("tickets", "update", "t1")
	require.Error(t, err)
	assert.True(t, oderrors.HasCode(err, oderrors.ErrCodeAPIInvalidInput))
	assert.Zero(t, c.transport.GetTotalCallCount())
}

func TestTicketsUpdate_SendsOnlyChangedFields(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)
	c.transport.RegisterResponder(http.MethodPatch, testServer+"/api/tickets/t1",
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			assert.JSONEq(t, `{"status_id":"done"}`, string(body))
			return httpmock.NewStringResponse(http.StatusOK, `{"id": "t1", "status_id": "done"}`), nil
		})

	_, _, err := c.run("tickets", "update", "t1", "--status", "done")
	require.NoError(t, err)
}

func TestTicketsExport_ToFile(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)
	csv := "id,title\nt1,Leaking tap\n"
	c.transport.RegisterResponder(http.MethodGet, testServer+"/api/admin/export/tickets",
		httpmock.NewStringResponder(http.StatusOK, csv).HeaderSet(http.Header{"Content-Type": {"text/csv"}}))

	out := filepath.Join(t.TempDir(), "tickets.csv")
	_, _, err := c.run("tickets", "export", "--output", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, csv, string(data))
}

func TestTasksDelete_RequiresYesWhenNotInteractive(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)

	_, _, err := c.run("tasks", "delete", "k1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirmation required")

	c.transport.RegisterResponder(http.MethodDelete, testServer+"/api/scheduled-tasks/k1",
		httpmock.NewStringResponder(http.StatusNoContent, ""))
	_, _, err = c.run("tasks", "delete", "k1", "--yes")
	require.NoError(t, err)
}

func TestPublicSubmit_NeedsNoSession(t *testing.T) {
	c := newCLI(t)
	c.transport.RegisterResponder(http.MethodPost, testServer+"/api/public/tickets",
		func(req *http.Request) (*http.Response, error) {
			_, err := req.Cookie(credentials.CookieName)
			assert.Error(t, err, "no session cookie is sent")
			body, _ := io.ReadAll(req.Body)
			assert.Contains(t, string(body), `"token":"share-1"`)
			return httpmock.NewStringResponse(http.StatusCreated, `{"id": "t5"}`), nil
		})

	_, stderr, err := c.run("public", "submit", "--token", "share-1", "--title", "Broken window")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Submitted ticket t5")
}

func TestQuietSuppressesSuccess(t *testing.T) {
	c := newCLI(t)
	c.transport.RegisterResponder(http.MethodPost, testServer+"/api/public/tickets",
		httpmock.NewStringResponder(http.StatusCreated, `{"id": "t5"}`))

	_, stderr, err := c.run("--quiet", "public", "submit", "--token", "share-1", "--title", "Broken window")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestConfigSetAndGet(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run("config", "set", "output.format", "yaml")
	require.NoError(t, err)

	stdout, _, err := c.run("config", "get", "output.format")
	require.NoError(t, err)
	assert.Equal(t, "yaml\n", stdout)

	_, _, err = c.run("config", "set", "output.format", "xml")
	require.Error(t, err)

	_, _, err = c.run("config", "get", "colour")
	require.Error(t, err)
	assert.True(t, oderrors.HasCode(err, oderrors.ErrCodeConfigInvalid))
}

func TestDoctor_Unreachable(t *testing.T) {
	c := newCLI(t)
	c.transport.RegisterResponder(http.MethodGet, testServer+"/api/health",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"error":"down"}`))

	stdout, _, err := c.run("doctor")
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ server")
	assert.Contains(t, stdout, "Some checks failed.")
}

func TestDoctor_Healthy(t *testing.T) {
	c := newCLI(t)
	c.login("s1")
	c.serveMe(meBody)
	c.transport.RegisterResponder(http.MethodGet, testServer+"/api/health",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"ok"}`))

	stdout, _, err := c.run("doctor")
	require.NoError(t, err)
	assert.Contains(t, stdout, "signed in as Ada")
	assert.Contains(t, stdout, "One (owner)")
	assert.Contains(t, stdout, "Ready to use.")
}
