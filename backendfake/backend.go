// Package backendfake is an in-process stand-in for the BAFCC REST backend.
// It issues signed JWT access tokens and opaque refresh tokens, and lets
// tests revoke tokens, reject refreshes and hold profile requests.
package backendfake

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bafcc/camp-admin/applications"
	"github.com/bafcc/camp-admin/financials"
	"github.com/bafcc/camp-admin/oauthmodel"
	"github.com/bafcc/camp-admin/users"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const DefaultAccessTTL = 30 * time.Minute

// Backend implements the login, refresh, me and logout endpoints plus
// in-memory application and financial collections.
type Backend struct {
	mux       *http.ServeMux
	secret    []byte
	accessTTL time.Duration

	lock          sync.Mutex
	accounts      map[string]*users.Account
	refreshTokens map[string]string // refresh token to username
	generation    int64
	rejectRefresh bool
	rotate        bool
	refreshDelay  time.Duration
	meFailures    int
	meGate        chan struct{}
	apps          map[int]applications.Application
	nextAppID     int

	members        *fakeLedger[financials.Member]
	playerDeposits *fakeLedger[financials.PlayerDeposit]
	memberDeposits *fakeLedger[financials.MemberDeposit]
	donations      *fakeLedger[financials.Donation]
	expenses       *fakeLedger[financials.Expense]

	loginCalls   atomic.Int64
	refreshCalls atomic.Int64
	meCalls      atomic.Int64
	logoutCalls  atomic.Int64
}

type Option func(*Backend)

// WithAccessTTL sets the lifetime of issued access tokens.
func WithAccessTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.accessTTL = ttl
	}
}

// WithRefreshRotation makes every refresh issue a new refresh token.
func WithRefreshRotation() Option {
	return func(b *Backend) {
		b.rotate = true
	}
}

func New(opts ...Option) *Backend {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	b := &Backend{
		mux:           http.NewServeMux(),
		secret:        secret,
		accessTTL:     DefaultAccessTTL,
		accounts:      make(map[string]*users.Account),
		refreshTokens: make(map[string]string),
		apps:          make(map[int]applications.Application),
		nextAppID:     1,

		members:        newFakeLedger[financials.Member](),
		playerDeposits: newFakeLedger[financials.PlayerDeposit](),
		memberDeposits: newFakeLedger[financials.MemberDeposit](),
		donations:      newFakeLedger[financials.Donation](),
		expenses:       newFakeLedger[financials.Expense](),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.routes()
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// AddUser registers an account. A zero profile id is replaced with the next
// free id.
func (b *Backend) AddUser(username, password string, profile users.Profile) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return err
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if profile.ID == 0 {
		profile.ID = len(b.accounts) + 1
	}
	profile.Username = username
	b.accounts[username] = &users.Account{Profile: profile, PasswordHash: hash}
	return nil
}

// RevokeAccessTokens invalidates every access token issued so far.
func (b *Backend) RevokeAccessTokens() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.generation++
}

// RejectRefresh makes the refresh endpoint answer 401.
func (b *Backend) RejectRefresh(reject bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.rejectRefresh = reject
}

// SetRefreshDelay slows the refresh endpoint so concurrent callers overlap.
func (b *Backend) SetRefreshDelay(d time.Duration) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.refreshDelay = d
}

// FailMe makes the next n profile requests answer 503.
func (b *Backend) FailMe(n int) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.meFailures = n
}

// GateMe holds every profile request until release is called.
func (b *Backend) GateMe() (release func()) {
	gate := make(chan struct{})
	b.lock.Lock()
	b.meGate = gate
	b.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.lock.Lock()
			if b.meGate == gate {
				b.meGate = nil
			}
			b.lock.Unlock()
			close(gate)
		})
	}
}

// IssueAccessToken signs a token for username outside of the login flow.
func (b *Backend) IssueAccessToken(username string) (string, error) {
	b.lock.Lock()
	gen := b.generation
	b.lock.Unlock()
	return b.signAccess(username, gen)
}

// IssueRefreshToken registers a refresh token for username.
func (b *Backend) IssueRefreshToken(username string) string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.newRefreshLocked(username)
}

func (b *Backend) LoginCalls() int64   { return b.loginCalls.Load() }
func (b *Backend) RefreshCalls() int64 { return b.refreshCalls.Load() }
func (b *Backend) MeCalls() int64      { return b.meCalls.Load() }
func (b *Backend) LogoutCalls() int64  { return b.logoutCalls.Load() }

func (b *Backend) routes() {
	b.mux.HandleFunc("POST /api/v1/users/login", b.handleLogin)
	b.mux.HandleFunc("POST /api/v1/users/refresh", b.handleRefresh)
	b.mux.HandleFunc("GET /api/v1/users/me", b.authorized(b.handleMe))
	b.mux.HandleFunc("POST /api/v1/users/logout", b.handleLogout)

	b.mux.HandleFunc("GET /api/v1/applications/{$}", b.authorized(b.handleListApplications))
	b.mux.HandleFunc("POST /api/v1/applications/{$}", b.handleCreateApplication)
	b.mux.HandleFunc("GET /api/v1/applications/names/{$}", b.authorized(b.handleApplicationNames))
	b.mux.HandleFunc("GET /api/v1/applications/{id}", b.authorized(b.handleGetApplication))
	b.mux.HandleFunc("PUT /api/v1/applications/{id}", b.authorized(b.handleUpdateApplication))
	b.mux.HandleFunc("DELETE /api/v1/applications/{id}", b.authorized(b.handleDeleteApplication))
	b.mux.HandleFunc("GET /api/v1/applications/{id}/pdf-images", b.authorized(b.handleApplicationImages))
	b.financialRoutes()
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.loginCalls.Add(1)

	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	b.lock.Lock()
	account, ok := b.accounts[username]
	gen := b.generation
	b.lock.Unlock()
	if !ok || !users.CheckPasswordHash(password, account.PasswordHash) {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	access, err := b.signAccess(username, gen)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	refresh := b.IssueRefreshToken(username)

	writeJSON(w, http.StatusOK, oauthmodel.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	var req oauthmodel.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.lock.Lock()
	delay := b.refreshDelay
	b.lock.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	b.lock.Lock()
	username, ok := b.refreshTokens[req.RefreshToken]
	if b.rejectRefresh || !ok {
		b.lock.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	resp := oauthmodel.RefreshResponse{TokenType: "bearer"}
	if b.rotate {
		delete(b.refreshTokens, req.RefreshToken)
		resp.RefreshToken = b.newRefreshLocked(username)
	}
	gen := b.generation
	b.lock.Unlock()

	access, err := b.signAccess(username, gen)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp.AccessToken = access
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.meCalls.Add(1)

	b.lock.Lock()
	gate := b.meGate
	fail := b.meFailures > 0
	if fail {
		b.meFailures--
	}
	b.lock.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if fail {
		writeDetail(w, http.StatusServiceUnavailable, "temporarily unavailable")
		return
	}

	b.lock.Lock()
	account, ok := b.accounts[usernameFrom(r)]
	b.lock.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, account.Profile)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.logoutCalls.Add(1)
	w.WriteHeader(http.StatusNoContent)
}

// authorized rejects requests without a valid current access token.
func (b *Backend) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		username, err := b.verifyAccess(raw)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r.WithContext(withUsername(r.Context(), username)))
	}
}

func (b *Backend) signAccess(username string, gen int64) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(b.accessTTL).Unix(),
		"jti": uuid.New().String(),
		"gen": gen,
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(b.secret)
}

func (b *Backend) verifyAccess(raw string) (string, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		return b.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(NowTimeFunc))
	if err != nil {
		return "", err
	}

	gen, _ := claims["gen"].(float64)
	b.lock.Lock()
	current := b.generation
	b.lock.Unlock()
	if int64(gen) != current {
		return "", errors.New("token revoked")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("missing subject")
	}
	return sub, nil
}

func (b *Backend) newRefreshLocked(username string) string {
	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)
	b.refreshTokens[token] = username
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, oauthmodel.ErrorResponse{Detail: detail})
}
