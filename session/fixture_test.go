package session_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bafcc/camp-admin/backendfake"
	"github.com/bafcc/camp-admin/internal/config"
	"github.com/bafcc/camp-admin/session"
	"github.com/bafcc/camp-admin/sessionstate"
	"github.com/bafcc/camp-admin/tokens/tokensfake"
	"github.com/bafcc/camp-admin/users"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "coach1"
	testPassword = "secret"
	testUserID   = 7
)

type testConfig struct {
	config.Backend
	config.Session
}

func newConfig(apiURL string) testConfig {
	return testConfig{
		Backend: config.Backend{
			APIURL:      apiURL,
			LoginPath:   "/api/v1/users/login",
			RefreshPath: "/api/v1/users/refresh",
			MePath:      "/api/v1/users/me",
			LogoutPath:  "/api/v1/users/logout",
			HTTPTimeout: 5 * time.Second,
		},
		Session: config.Session{
			TokenFile:      "session.json",
			InitRetryDelay: 20 * time.Millisecond,
			ExpiryMargin:   5 * time.Minute,
			GuardTimeout:   time.Second,
		},
	}
}

// testFixture holds a fake backend and a manager talking to it.
type testFixture struct {
	backend *backendfake.Backend
	server  *httptest.Server
	store   *tokensfake.Store
	holder  *sessionstate.Holder
	manager *session.Manager
	expired atomic.Int32
}

type fixtureOptions struct {
	backendOpts []backendfake.Option
	wrap        func(http.Handler) http.Handler
	store       *tokensfake.Store
}

type fixtureOption func(*fixtureOptions)

func withBackendOptions(opts ...backendfake.Option) fixtureOption {
	return func(o *fixtureOptions) { o.backendOpts = append(o.backendOpts, opts...) }
}

func withHandler(wrap func(http.Handler) http.Handler) fixtureOption {
	return func(o *fixtureOptions) { o.wrap = wrap }
}

func withStore(store *tokensfake.Store) fixtureOption {
	return func(o *fixtureOptions) { o.store = store }
}

func newFixture(t *testing.T, opts ...fixtureOption) *testFixture {
	t.Helper()
	o := fixtureOptions{store: tokensfake.New()}
	for _, opt := range opts {
		opt(&o)
	}

	f := &testFixture{
		backend: backendfake.New(o.backendOpts...),
		store:   o.store,
		holder:  sessionstate.NewHolder(),
	}
	require.NoError(t, f.backend.AddUser(testUsername, testPassword, users.Profile{
		ID:       testUserID,
		Email:    "coach1@bafcc.example",
		FullName: "Coach One",
		IsActive: true,
		IsAdmin:  true,
	}))

	var handler http.Handler = f.backend
	if o.wrap != nil {
		handler = o.wrap(handler)
	}
	f.server = httptest.NewServer(handler)
	t.Cleanup(f.server.Close)

	m, err := session.New(newConfig(f.server.URL), f.store, f.holder, session.WithSessionExpired(func(error) {
		f.expired.Add(1)
	}))
	require.NoError(t, err)
	f.manager = m
	t.Cleanup(m.Wait)
	return f
}

// seedSession stores a valid token pair as if a previous run had logged in.
func (f *testFixture) seedSession(t *testing.T) {
	t.Helper()
	access, err := f.backend.IssueAccessToken(testUsername)
	require.NoError(t, err)
	require.NoError(t, f.store.Save(access, f.backend.IssueRefreshToken(testUsername)))
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	ok, err := f.manager.Login(t.Context(), testUsername, testPassword)
	require.NoError(t, err)
	require.True(t, ok)
}

func waitForState(t *testing.T, view sessionstate.View, pred func(sessionstate.State) bool) sessionstate.State {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		s, changed := view.Watch()
		if pred(s) {
			return s
		}
		select {
		case <-changed:
		case <-timeout:
			t.Fatalf("state not reached, last state %+v", s)
		}
	}
}

func confirmed(s sessionstate.State) bool {
	return s.Phase == sessionstate.AuthenticatedConfirmed
}

func initialized(s sessionstate.State) bool {
	return !s.Initializing
}
