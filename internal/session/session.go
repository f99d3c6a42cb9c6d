// Package session holds the client's authenticated identity, its
// organization memberships, and the active organization.
//
// A Store is constructed once by the host and passed to every consumer.
// Bootstrap must complete before consumers read the active organization.
package session

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wsciaroni/opsdeck-cli/internal/api"
	"github.com/wsciaroni/opsdeck-cli/internal/domain"
	"github.com/wsciaroni/opsdeck-cli/internal/log"
	"github.com/wsciaroni/opsdeck-cli/internal/prefs"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
)

// Gateway is the subset of the API client the store needs.
type Gateway interface {
	Me(ctx context.Context) (*api.MeResponse, error)
	Logout(ctx context.Context) error
}

// Options configures a Store.
type Options struct {
	Gateway   Gateway
	Prefs     prefs.Store
	Navigator shell.Navigator
	Logger    *log.Logger

	// BootstrapTimeout bounds the initial probe. Zero means no limit.
	BootstrapTimeout time.Duration

	// ForgetSession discards the locally persisted session cookie on logout.
	ForgetSession func() error
}

// Snapshot is a copy of the store state.
type Snapshot struct {
	User               *domain.User          `json:"user" yaml:"user"`
	Organizations      []domain.Organization `json:"organizations" yaml:"organizations"`
	ActiveOrganization *domain.Organization  `json:"active_organization" yaml:"active_organization"`
	Loading            bool                  `json:"loading" yaml:"loading"`
}

// LoggedIn reports whether a user is present.
func (s Snapshot) LoggedIn() bool {
	return s.User != nil
}

// NeedsOrganization reports a logged-in user with no active organization.
func (s Snapshot) NeedsOrganization() bool {
	return s.User != nil && s.ActiveOrganization == nil
}

// Store is the single writer of session state. Reads are safe from any
// goroutine.
type Store struct {
	gateway          Gateway
	prefs            prefs.Store
	navigator        shell.Navigator
	logger           *log.Logger
	bootstrapTimeout time.Duration
	forgetSession    func() error

	mu           sync.RWMutex
	user         *domain.User
	orgs         []domain.Organization
	active       *domain.Organization
	loading      bool
	bootstrapped bool
	applied      uint64
	subscribers  []func(Snapshot)

	issued atomic.Uint64
	group  singleflight.Group
}

// New creates a Store in the loading state.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}
	store := opts.Prefs
	if store == nil {
		store = prefs.NewMemoryStore()
	}

	return &Store{
		gateway:          opts.Gateway,
		prefs:            store,
		navigator:        opts.Navigator,
		logger:           logger.WithGroup("session"),
		bootstrapTimeout: opts.BootstrapTimeout,
		forgetSession:    opts.ForgetSession,
		loading:          true,
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Loading: s.loading}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.orgs != nil {
		snap.Organizations = append([]domain.Organization(nil), s.orgs...)
	}
	if s.active != nil {
		o := *s.active
		snap.ActiveOrganization = &o
	}
	return snap
}

// User returns the authenticated user, or nil.
func (s *Store) User() *domain.User {
	return s.Snapshot().User
}

// Organizations returns the memberships in server order.
func (s *Store) Organizations() []domain.Organization {
	return s.Snapshot().Organizations
}

// ActiveOrganization returns the active organization, or nil.
func (s *Store) ActiveOrganization() *domain.Organization {
	return s.Snapshot().ActiveOrganization
}

// Loading is true until the initial bootstrap settles.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// NeedsOrganization reports a logged-in user with no active organization.
func (s *Store) NeedsOrganization() bool {
	return s.Snapshot().NeedsOrganization()
}

// Bootstrap discovers the identity and memberships. It runs once per Store;
// concurrent callers share the in-flight probe and later calls return
// immediately. Failures resolve to the logged-out state and are not returned.
func (s *Store) Bootstrap(ctx context.Context) {
	s.mu.RLock()
	done := s.bootstrapped
	s.mu.RUnlock()
	if done {
		return
	}

	_, _, _ = s.group.Do("bootstrap", func() (any, error) { //nolint:errcheck // bootstrap never fails
		s.mu.RLock()
		done := s.bootstrapped
		s.mu.RUnlock()
		if done {
			return nil, nil
		}

		defer s.finishBootstrap()

		if s.bootstrapTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.bootstrapTimeout)
			defer cancel()
		}

		if err := s.load(ctx, true); err != nil && !api.IsUnauthorized(err) {
			s.logger.WithError(err).Warn("bootstrap failed, continuing logged out")
		}
		return nil, nil
	})
}

func (s *Store) finishBootstrap() {
	s.mu.Lock()
	s.loading = false
	s.bootstrapped = true
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
}

// RefreshOrganizations re-fetches memberships and re-resolves the active
// organization without touching Loading. A 401 resolves to logged out; any
// other failure leaves the state as it was. The gateway error is returned.
func (s *Store) RefreshOrganizations(ctx context.Context) error {
	return s.load(ctx, false)
}

// load runs the probe and applies the result. Responses older than the
// newest applied one are discarded.
func (s *Store) load(ctx context.Context, clearOnFailure bool) error {
	token := s.issued.Add(1)
	me, err := s.gateway.Me(ctx)

	s.mu.Lock()
	if token < s.applied {
		s.mu.Unlock()
		s.logger.Debug("discarding stale membership response", "token", token)
		return err
	}

	switch {
	case err == nil:
		s.applied = token
		s.applyLocked(me)
	case clearOnFailure || api.IsUnauthorized(err):
		s.applied = token
		s.clearLocked()
	default:
		s.mu.Unlock()
		return err
	}

	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
	return err
}

// applyLocked replaces identity and memberships and resolves the active
// organization: the stored last_org_id if still a member, then the current
// one if still a member, then the first, else none.
func (s *Store) applyLocked(me *api.MeResponse) {
	s.user = me.User
	s.orgs = append([]domain.Organization(nil), me.Organizations...)

	var previous string
	if s.active != nil {
		previous = s.active.ID
	}
	s.active = nil

	if id, ok := s.prefs.Get(prefs.LastOrgID); ok {
		if org, found := domain.FindOrganization(s.orgs, id); found {
			s.active = &org
			return
		}
	}
	if org, found := domain.FindOrganization(s.orgs, previous); found {
		s.active = &org
		return
	}
	if len(s.orgs) > 0 {
		org := s.orgs[0]
		s.active = &org
	}
}

func (s *Store) clearLocked() {
	s.user = nil
	s.orgs = nil
	s.active = nil
}

// SwitchOrganization makes orgID active and remembers it. Unknown ids are
// ignored. The in-memory change is immediate; a failed write of the
// remembered id is only logged.
func (s *Store) SwitchOrganization(orgID string) {
	s.mu.Lock()
	org, found := domain.FindOrganization(s.orgs, orgID)
	if !found {
		s.mu.Unlock()
		s.logger.Debug("ignoring switch to unknown organization", "org_id", orgID)
		return
	}
	s.active = &org
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)

	if err := s.prefs.Set(prefs.LastOrgID, orgID); err != nil {
		s.logger.WithError(err).Warn("failed to remember organization", "org_id", orgID)
	}
}

// Login sends the host to the server login entry point. State is unchanged.
func (s *Store) Login(ctx context.Context) {
	s.logger.DebugContext(ctx, "navigating to login entry")
	s.navigator.Navigate(shell.RouteLoginEntry)
}

// Logout ends the session on the server when it can and always clears
// local state.
func (s *Store) Logout(ctx context.Context) {
	if err := s.gateway.Logout(ctx); err != nil {
		s.logger.WithError(err).Warn("logout request failed, clearing local session anyway")
	}

	if s.forgetSession != nil {
		if err := s.forgetSession(); err != nil {
			s.logger.WithError(err).Warn("failed to discard stored session")
		}
	}

	s.mu.Lock()
	s.clearLocked()
	s.applied = s.issued.Add(1)
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	return slices.Clone(s.subscribers)
}

func publish(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
