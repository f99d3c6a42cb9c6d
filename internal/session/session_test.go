package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsciaroni/opsdeck-cli/internal/api"
	"github.com/wsciaroni/opsdeck-cli/internal/domain"
	"github.com/wsciaroni/opsdeck-cli/internal/log"
	"github.com/wsciaroni/opsdeck-cli/internal/prefs"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
)

type fakeGateway struct {
	meCalls     atomic.Int32
	logoutCalls atomic.Int32
	me          func(ctx context.Context, call int32) (*api.MeResponse, error)
	logoutErr   error
}

func (g *fakeGateway) Me(ctx context.Context) (*api.MeResponse, error) {
	n := g.meCalls.Add(1)
	return g.me(ctx, n)
}

func (g *fakeGateway) Logout(context.Context) error {
	g.logoutCalls.Add(1)
	return g.logoutErr
}

func respond(orgs ...domain.Organization) func(context.Context, int32) (*api.MeResponse, error) {
	return func(context.Context, int32) (*api.MeResponse, error) {
		return &api.MeResponse{
			User:          &domain.User{ID: "u1", Email: "ada@example.com", Name: "Ada"},
			Organizations: orgs,
		}, nil
	}
}

func fail(err error) func(context.Context, int32) (*api.MeResponse, error) {
	return func(context.Context, int32) (*api.MeResponse, error) {
		return nil, err
	}
}

var (
	orgA = domain.Organization{ID: "a", Name: "Alpha", Slug: "alpha", Role: domain.RoleOwner}
	orgB = domain.Organization{ID: "b", Name: "Beta", Slug: "beta", Role: domain.RoleMember}
	orgC = domain.Organization{ID: "c", Name: "Gamma", Slug: "gamma", Role: domain.RoleAdmin}

	errUnauthorized = &api.Error{Method: http.MethodGet, Path: api.MePath, Status: http.StatusUnauthorized, Message: "unauthorized"}
)

func newStore(t *testing.T, gw *fakeGateway, store prefs.Store) (*Store, *shell.Recorder) {
	t.Helper()
	rec := shell.NewRecorder(shell.RouteHome)
	if store == nil {
		store = prefs.NewMemoryStore()
	}
	return New(Options{
		Gateway:   gw,
		Prefs:     store,
		Navigator: rec,
		Logger:    log.Discard(),
	}), rec
}

// assertInvariant checks that the active organization is always a member.
func assertInvariant(t *testing.T, snap Snapshot) {
	t.Helper()
	if len(snap.Organizations) == 0 {
		assert.Nil(t, snap.ActiveOrganization)
		return
	}
	if snap.ActiveOrganization != nil {
		_, found := domain.FindOrganization(snap.Organizations, snap.ActiveOrganization.ID)
		assert.True(t, found, "active organization %q is not a member", snap.ActiveOrganization.ID)
	}
}

func TestNew_StartsLoading(t *testing.T) {
	s, _ := newStore(t, &fakeGateway{me: respond()}, nil)
	assert.True(t, s.Loading())
	assert.Nil(t, s.User())
	assert.Nil(t, s.ActiveOrganization())
}

func TestBootstrap_Selection(t *testing.T) {
	tests := []struct {
		name      string
		orgs      []domain.Organization
		lastOrgID string
		want      string
	}{
		{name: "remembered organization wins", orgs: []domain.Organization{orgA, orgB, orgC}, lastOrgID: "b", want: "b"},
		{name: "unknown remembered id falls back to first", orgs: []domain.Organization{orgA, orgB}, lastOrgID: "zzz", want: "a"},
		{name: "no remembered id selects first", orgs: []domain.Organization{orgB, orgA}, want: "b"},
		{name: "empty membership selects nothing", orgs: nil, lastOrgID: "a", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := prefs.NewMemoryStore()
			if tt.lastOrgID != "" {
				require.NoError(t, store.Set(prefs.LastOrgID, tt.lastOrgID))
			}
			s, _ := newStore(t, &fakeGateway{me: respond(tt.orgs...)}, store)

			s.Bootstrap(context.Background())

			snap := s.Snapshot()
			assert.False(t, snap.Loading)
			require.NotNil(t, snap.User)
			assertInvariant(t, snap)
			if tt.want == "" {
				assert.Nil(t, snap.ActiveOrganization)
				assert.True(t, snap.NeedsOrganization())
				return
			}
			require.NotNil(t, snap.ActiveOrganization)
			assert.Equal(t, tt.want, snap.ActiveOrganization.ID)
		})
	}
}

func TestBootstrap_PreservesServerOrder(t *testing.T) {
	s, _ := newStore(t, &fakeGateway{me: respond(orgC, orgA, orgB)}, nil)
	s.Bootstrap(context.Background())

	orgs := s.Organizations()
	require.Len(t, orgs, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{orgs[0].ID, orgs[1].ID, orgs[2].ID})
}

func TestBootstrap_ProbeUnauthorizedResolvesLoggedOut(t *testing.T) {
	s, rec := newStore(t, &fakeGateway{me: fail(errUnauthorized)}, nil)

	s.Bootstrap(context.Background())

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.LoggedIn())
	assert.Empty(t, snap.Organizations)
	assert.Nil(t, snap.ActiveOrganization)
	assert.Empty(t, rec.Navigations())
	assert.Empty(t, rec.Errors())
}

func TestBootstrap_OtherFailureResolvesLoggedOut(t *testing.T) {
	s, _ := newStore(t, &fakeGateway{me: fail(errors.New("connection refused"))}, nil)

	s.Bootstrap(context.Background())

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.ActiveOrganization)
}

func TestBootstrap_RunsOnce(t *testing.T) {
	gw := &fakeGateway{me: respond(orgA)}
	s, _ := newStore(t, gw, nil)

	s.Bootstrap(context.Background())
	s.Bootstrap(context.Background())

	assert.Equal(t, int32(1), gw.meCalls.Load())
}

func TestBootstrap_ConcurrentCallersShareOneProbe(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{}
	gw.me = func(ctx context.Context, _ int32) (*api.MeResponse, error) {
		<-release
		return respond(orgA, orgB)(ctx, 0)
	}
	s, _ := newStore(t, gw, nil)

	var loadingTransitions atomic.Int32
	s.Subscribe(func(snap Snapshot) {
		if !snap.Loading {
			loadingTransitions.Add(1)
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Bootstrap(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return gw.meCalls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), gw.meCalls.Load())
	assert.Equal(t, int32(1), loadingTransitions.Load())
	assert.False(t, s.Loading())
	require.NotNil(t, s.ActiveOrganization())
	assert.Equal(t, "a", s.ActiveOrganization().ID)
}

func TestBootstrap_Timeout(t *testing.T) {
	gw := &fakeGateway{}
	gw.me = func(ctx context.Context, _ int32) (*api.MeResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s := New(Options{
		Gateway:          gw,
		Navigator:        shell.NewRecorder(shell.RouteHome),
		Logger:           log.Discard(),
		BootstrapTimeout: 10 * time.Millisecond,
	})

	s.Bootstrap(context.Background())

	assert.False(t, s.Loading())
	assert.Nil(t, s.User())
}

func TestRefresh_IsIdempotent(t *testing.T) {
	s, _ := newStore(t, &fakeGateway{me: respond(orgA, orgB, orgC)}, nil)
	s.Bootstrap(context.Background())
	s.SwitchOrganization("c")

	require.NoError(t, s.RefreshOrganizations(context.Background()))
	require.NoError(t, s.RefreshOrganizations(context.Background()))

	require.NotNil(t, s.ActiveOrganization())
	assert.Equal(t, "c", s.ActiveOrganization().ID)
	assert.False(t, s.Loading())
}

func TestRefresh_KeepsInMemoryOrganizationWithoutRememberedID(t *testing.T) {
	store := prefs.NewMemoryStore()
	gw := &fakeGateway{}
	gw.me = func(ctx context.Context, call int32) (*api.MeResponse, error) {
		if call == 1 {
			return respond(orgA, orgB)(ctx, call)
		}
		return respond(orgC, orgA, orgB)(ctx, call)
	}
	s, _ := newStore(t, gw, store)
	s.Bootstrap(context.Background())
	s.SwitchOrganization("b")
	require.NoError(t, store.Delete(prefs.LastOrgID))

	require.NoError(t, s.RefreshOrganizations(context.Background()))

	assert.Equal(t, "b", s.ActiveOrganization().ID)
	assertInvariant(t, s.Snapshot())
}

func TestRefresh_DropsActiveOrganizationThatDisappeared(t *testing.T) {
	gw := &fakeGateway{}
	gw.me = func(ctx context.Context, call int32) (*api.MeResponse, error) {
		if call == 1 {
			return respond(orgA, orgB)(ctx, call)
		}
		return respond(orgA)(ctx, call)
	}
	s, _ := newStore(t, gw, nil)
	s.Bootstrap(context.Background())
	s.SwitchOrganization("b")

	require.NoError(t, s.RefreshOrganizations(context.Background()))

	assert.Equal(t, "a", s.ActiveOrganization().ID)
	assertInvariant(t, s.Snapshot())
}

func TestRefresh_UnauthorizedLogsOut(t *testing.T) {
	gw := &fakeGateway{}
	gw.me = func(ctx context.Context, call int32) (*api.MeResponse, error) {
		if call == 1 {
			return respond(orgA)(ctx, call)
		}
		return nil, errUnauthorized
	}
	s, _ := newStore(t, gw, nil)
	s.Bootstrap(context.Background())

	err := s.RefreshOrganizations(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Nil(t, s.User())
	assert.Empty(t, s.Organizations())
	assert.Nil(t, s.ActiveOrganization())
}

func TestRefresh_OtherFailureKeepsState(t *testing.T) {
	gw := &fakeGateway{}
	gw.me = func(ctx context.Context, call int32) (*api.MeResponse, error) {
		if call == 1 {
			return respond(orgA, orgB)(ctx, call)
		}
		return nil, errors.New("server exploded")
	}
	s, _ := newStore(t, gw, nil)
	s.Bootstrap(context.Background())

	err := s.RefreshOrganizations(context.Background())
	require.Error(t, err)
	assert.NotNil(t, s.User())
	assert.Len(t, s.Organizations(), 2)
	assert.Equal(t, "a", s.ActiveOrganization().ID)
}

func TestRefresh_StaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{}
	gw.me = func(ctx context.Context, call int32) (*api.MeResponse, error) {
		if call == 1 {
			<-release
			return respond(orgA)(ctx, call)
		}
		return respond(orgB, orgC)(ctx, call)
	}
	s, _ := newStore(t, gw, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.RefreshOrganizations(context.Background())
	}()
	require.Eventually(t, func() bool { return gw.meCalls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.RefreshOrganizations(context.Background()))
	close(release)
	require.NoError(t, <-done)

	orgs := s.Organizations()
	require.Len(t, orgs, 2)
	assert.Equal(t, "b", orgs[0].ID)
	assert.Equal(t, "b", s.ActiveOrganization().ID)
}

func TestSwitchOrganization(t *testing.T) {
	store := prefs.NewMemoryStore()
	s, _ := newStore(t, &fakeGateway{me: respond(orgA, orgB)}, store)
	s.Bootstrap(context.Background())

	s.SwitchOrganization("b")

	assert.Equal(t, "b", s.ActiveOrganization().ID)
	id, ok := store.Get(prefs.LastOrgID)
	require.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestSwitchOrganization_UnknownIDIsNoop(t *testing.T) {
	store := prefs.NewMemoryStore()
	s, _ := newStore(t, &fakeGateway{me: respond(orgA, orgB)}, store)
	s.Bootstrap(context.Background())
	before := s.Snapshot()

	s.SwitchOrganization("nope")

	assert.Equal(t, before, s.Snapshot())
	_, ok := store.Get(prefs.LastOrgID)
	assert.False(t, ok)
}

type failingPrefs struct {
	*prefs.MemoryStore
}

func (failingPrefs) Set(string, string) error {
	return errors.New("disk full")
}

func TestSwitchOrganization_PersistFailureStillSwitches(t *testing.T) {
	s, _ := newStore(t, &fakeGateway{me: respond(orgA, orgB)}, failingPrefs{prefs.NewMemoryStore()})
	s.Bootstrap(context.Background())

	s.SwitchOrganization("b")

	assert.Equal(t, "b", s.ActiveOrganization().ID)
}

func TestLogin_NavigatesToLoginEntry(t *testing.T) {
	s, rec := newStore(t, &fakeGateway{me: respond(orgA)}, nil)
	s.Bootstrap(context.Background())
	before := s.Snapshot()

	s.Login(context.Background())

	assert.Equal(t, []shell.Route{shell.RouteLoginEntry}, rec.Navigations())
	assert.Equal(t, before, s.Snapshot())
}

func TestLogout_ClearsStateUnconditionally(t *testing.T) {
	for _, logoutErr := range []error{nil, errors.New("network down")} {
		name := "success"
		if logoutErr != nil {
			name = "failure"
		}
		t.Run(name, func(t *testing.T) {
			gw := &fakeGateway{me: respond(orgA, orgB), logoutErr: logoutErr}
			forgotten := false
			s := New(Options{
				Gateway:       gw,
				Navigator:     shell.NewRecorder(shell.RouteHome),
				Logger:        log.Discard(),
				ForgetSession: func() error { forgotten = true; return nil },
			})
			s.Bootstrap(context.Background())

			s.Logout(context.Background())

			snap := s.Snapshot()
			assert.Nil(t, snap.User)
			assert.Empty(t, snap.Organizations)
			assert.Nil(t, snap.ActiveOrganization)
			assert.False(t, snap.Loading)
			assert.Equal(t, int32(1), gw.logoutCalls.Load())
			assert.True(t, forgotten)
		})
	}
}

func TestLogout_InFlightRefreshCannotRestoreUser(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{}
	gw.me = func(ctx context.Context, call int32) (*api.MeResponse, error) {
		if call == 2 {
			<-release
		}
		return respond(orgA, orgB)(ctx, call)
	}
	s, _ := newStore(t, gw, nil)
	s.Bootstrap(context.Background())
	require.NotNil(t, s.User())

	done := make(chan error, 1)
	go func() {
		done <- s.RefreshOrganizations(context.Background())
	}()
	require.Eventually(t, func() bool { return gw.meCalls.Load() == 2 }, time.Second, time.Millisecond)

	s.Logout(context.Background())
	close(release)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Organizations)
	assert.Nil(t, snap.ActiveOrganization)
}

func TestSubscribe_DuringPublishJoinsNextTransition(t *testing.T) {
	s, _ := newStore(t, &fakeGateway{me: respond(orgA, orgB)}, nil)

	var late []Snapshot
	subscribed := false
	s.Subscribe(func(Snapshot) {
		if !subscribed {
			subscribed = true
			s.Subscribe(func(snap Snapshot) { late = append(late, snap) })
		}
	})

	s.Bootstrap(context.Background())
	assert.Empty(t, late, "a subscriber added during a publish misses that publish")

	s.SwitchOrganization("b")
	require.Len(t, late, 1)
	assert.Equal(t, "b", late[0].ActiveOrganization.ID)
}

func TestSubscribe_ReceivesTransitions(t *testing.T) {
	s, _ := newStore(t, &fakeGateway{me: respond(orgA, orgB)}, nil)

	var snaps []Snapshot
	s.Subscribe(func(snap Snapshot) { snaps = append(snaps, snap) })

	s.Bootstrap(context.Background())
	s.SwitchOrganization("b")
	s.Logout(context.Background())

	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	assert.Nil(t, last.User)
	for _, snap := range snaps {
		assertInvariant(t, snap)
	}
}
