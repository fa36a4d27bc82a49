// Package session owns the admin's authenticated session: the token pair,
// the single-flight refresh, the profile and the published session state.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bafcc/camp-admin/authtransport"
	"github.com/bafcc/camp-admin/internal/config"
	apperrors "github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/sessionstate"
	"github.com/bafcc/camp-admin/tokens"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Config is what the manager reads from the process configuration.
type Config interface {
	config.BackendConfig
	config.SessionConfig
}

var (
	_ authtransport.Credentials = (*Manager)(nil)
	_ oauth2.TokenSource        = (*Manager)(nil)
)

// Manager is created once per process and shared by reference.
type Manager struct {
	cfg   Config
	store tokens.Store
	state *sessionstate.Holder

	// plain sends login, refresh and logout; authed carries every other
	// backend call through the authorizing transport.
	plain  *http.Client
	authed *http.Client

	flight    singleflight.Group
	initOnce  sync.Once
	onExpired func(error)
	bg        sync.WaitGroup

	lock sync.RWMutex
	// token is nil when no session is held.
	token *oauth2.Token
	// epoch changes on every login, restore and logout. Work started under
	// an older epoch must not publish or persist its result.
	epoch uint64
}

type Option func(*options)

type options struct {
	base      http.RoundTripper
	onExpired func(error)
}

// WithBaseTransport sets the RoundTripper under both clients.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

// WithSessionExpired registers fn, called after a backend call found the
// session could not be renewed and the session was ended.
func WithSessionExpired(fn func(error)) Option {
	return func(o *options) {
		o.onExpired = fn
	}
}

func New(cfg Config, store tokens.Store, state *sessionstate.Holder, opts ...Option) (*Manager, error) {
	o := options{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		cfg:       cfg,
		store:     store,
		state:     state,
		onExpired: o.onExpired,
		plain:     &http.Client{Transport: o.base, Timeout: cfg.GetHTTPTimeout()},
	}

	tr, err := authtransport.New(cfg.GetAPIURL(), m,
		authtransport.WithBase(o.base),
		authtransport.WithSessionExpired(m.sessionExpired),
	)
	if err != nil {
		return nil, err
	}
	m.authed = &http.Client{Transport: tr, Timeout: cfg.GetHTTPTimeout()}
	return m, nil
}

// HTTPClient returns the client that authorizes backend requests.
func (m *Manager) HTTPClient() *http.Client {
	return m.authed
}

// State returns the read side of the published session state.
func (m *Manager) State() sessionstate.View {
	return m.state
}

// AccessToken returns the access token held in memory, or "".
func (m *Manager) AccessToken() string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.token == nil {
		return ""
	}
	return m.token.AccessToken
}

// IsAuthenticated reports whether an access token is held.
func (m *Manager) IsAuthenticated() bool {
	return m.AccessToken() != ""
}

// Token implements oauth2.TokenSource. Expiry is read from the token's exp
// claim.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.token == nil || m.token.AccessToken == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	t := *m.token
	t.Expiry = tokenExpiry(t.AccessToken)
	return &t, nil
}

// Wait blocks until background profile fetches have finished.
func (m *Manager) Wait() {
	m.bg.Wait()
}

func (m *Manager) hasTokens() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.token != nil && (m.token.AccessToken != "" || m.token.RefreshToken != "")
}

func (m *Manager) currentEpoch() uint64 {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.epoch
}

// publish replaces the state unless the session changed since epoch.
// Initializing is only cleared by Initialize. Callers must not hold m.lock.
func (m *Manager) publish(epoch uint64, next sessionstate.State) {
	m.state.Update(func(s sessionstate.State) sessionstate.State {
		if m.currentEpoch() != epoch {
			return s
		}
		next.Initializing = s.Initializing
		return next
	})
}

// end drops the session in memory and in the store and publishes the
// logged-out state. It returns the access token that was held.
func (m *Manager) end() string {
	m.lock.Lock()
	return m.endLocked()
}

// endIf ends the session only if it is still the one started at epoch.
func (m *Manager) endIf(epoch uint64) bool {
	m.lock.Lock()
	if m.epoch != epoch {
		m.lock.Unlock()
		return false
	}
	m.endLocked()
	return true
}

// endLocked is entered with m.lock held and releases it.
func (m *Manager) endLocked() string {
	var access string
	if m.token != nil {
		access = m.token.AccessToken
	}
	m.token = nil
	m.epoch++
	epoch := m.epoch
	m.store.Clear()
	m.lock.Unlock()

	m.publish(epoch, sessionstate.LoggedOut())
	return access
}

// sessionExpired runs when the transport could not renew the session. Only
// the session the failed refresh belonged to is ended; a session started
// meanwhile is left alone and the hook is not called for it.
func (m *Manager) sessionExpired(err error) {
	var expired *expiredError
	if apperrors.As(err, &expired) {
		m.endIf(expired.epoch)
	} else if m.hasTokens() {
		m.end()
	}
	if m.hasTokens() {
		log.Debug().Err(err).Msg("refresh failure from an earlier session ignored")
		return
	}
	log.Info().Err(err).Msg("session expired")
	if m.onExpired != nil {
		m.onExpired(err)
	}
}

func (m *Manager) backgroundContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.cfg.GetHTTPTimeout())
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
