package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bafcc/camp-admin/applications"
	"github.com/bafcc/camp-admin/backendfake"
	"github.com/bafcc/camp-admin/internal/config"
	"github.com/bafcc/camp-admin/server"
	"github.com/bafcc/camp-admin/session"
	"github.com/bafcc/camp-admin/sessionstate"
	"github.com/bafcc/camp-admin/tokens/tokensfake"
	"github.com/bafcc/camp-admin/users"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "coach1"
	testPassword = "secret"
)

type testConfig struct {
	config.EnvVars
	config.Backend
	config.Session
	config.Console
}

func (testConfig) Validate() error { return nil }

func newConfig(apiURL string) testConfig {
	return testConfig{
		EnvVars: config.EnvVars{Port: "0", AppName: "BAFCC Admin", Env: "TEST"},
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
		Console: config.Console{LoginRatePerMinute: 100, MetricsEnabled: true},
	}
}

type testFixture struct {
	backend *backendfake.Backend
	manager *session.Manager
	server  *server.Server
}

type fixtureOptions struct {
	adjust []func(*testConfig)
	wrap   func(http.Handler) http.Handler
}

type fixtureOption func(*fixtureOptions)

func withConfig(fn func(*testConfig)) fixtureOption {
	return func(o *fixtureOptions) {
		o.adjust = append(o.adjust, fn)
	}
}

// withBackendWrap puts wrap in front of the fake backend.
func withBackendWrap(wrap func(http.Handler) http.Handler) fixtureOption {
	return func(o *fixtureOptions) {
		o.wrap = wrap
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *testFixture {
	t.Helper()
	var o fixtureOptions
	for _, opt := range opts {
		opt(&o)
	}
	backend := backendfake.New()
	require.NoError(t, backend.AddUser(testUsername, testPassword, users.Profile{
		ID:       7,
		FullName: "Coach One",
		IsActive: true,
		IsAdmin:  true,
	}))
	var handler http.Handler = backend
	if o.wrap != nil {
		handler = o.wrap(backend)
	}
	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	cfg := newConfig(api.URL)
	for _, fn := range o.adjust {
		fn(&cfg)
	}

	manager, err := session.New(cfg, tokensfake.New(), sessionstate.NewHolder())
	require.NoError(t, err)
	t.Cleanup(manager.Wait)
	manager.Initialize(t.Context())

	srv, err := server.New(cfg, manager)
	require.NoError(t, err)
	return &testFixture{backend: backend, manager: manager, server: srv}
}

func (f *testFixture) do(t *testing.T, method, target string, form url.Values, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	ok, err := f.manager.Login(t.Context(), testUsername, testPassword)
	require.NoError(t, err)
	require.True(t, ok)

	timeout := time.After(3 * time.Second)
	for {
		state, changed := f.manager.State().Watch()
		if state.Phase == sessionstate.AuthenticatedConfirmed {
			return
		}
		select {
		case <-changed:
		case <-timeout:
			t.Fatalf("profile not confirmed, last state %+v", state)
		}
	}
}

func sampleForm(name string) applications.Form {
	return applications.Form{Name: name, FatherName: "Father", MobileNumber: "9876543210", Category: "U-14"}
}

func TestIndex_RendersRegistrationForm(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Player registration")
	require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}

func TestRegister_CreatesApplication(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/register", url.Values{
		"name":             {"Rahul Das"},
		"mobile_number":    {"9876543210"},
		"category":         {"U-14"},
		"address.district": {"Hooghly"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "BAFCC-0001")

	apps := f.backend.Applications()
	require.Len(t, apps, 1)
	require.Equal(t, "Rahul Das", apps[0].Name)
	require.Equal(t, "Hooghly", apps[0].Address.District)
}

func TestRegister_MissingFields(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/register", url.Values{"name": {"Rahul Das"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Name and mobile number are required")
	require.Empty(t, f.backend.Applications())
}

func TestAdmin_RedirectsToLoginWithoutSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/dashboard?page=2", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/login?next=%2Fadmin%2Fdashboard%3Fpage%3D2", rec.Header().Get("Location"))
}

func TestAdmin_HTMXRedirect(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/dashboard", nil, "HX-Request", "true")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "/admin/login?next=%2Fadmin%2Fdashboard", rec.Header().Get("HX-Redirect"))
}

func TestLoginSubmission(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		status   int
		location string
		body     string
	}{
		{
			name:     "success returns to next",
			form:     url.Values{"username": {testUsername}, "password": {testPassword}, "next": {"/admin/view/3"}},
			status:   http.StatusSeeOther,
			location: "/admin/view/3",
		},
		{
			name:     "foreign next falls back to dashboard",
			form:     url.Values{"username": {testUsername}, "password": {testPassword}, "next": {"https://evil.example/x"}},
			status:   http.StatusSeeOther,
			location: "/admin/dashboard",
		},
		{
			name:   "wrong password",
			form:   url.Values{"username": {testUsername}, "password": {"nope"}, "next": {"/admin/view/3"}},
			status: http.StatusUnauthorized,
			body:   "Invalid username or password",
		},
		{
			name:   "missing password",
			form:   url.Values{"username": {testUsername}},
			status: http.StatusBadRequest,
			body:   "Username and password are required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(t, http.MethodPost, "/admin/login", tt.form)
			require.Equal(t, tt.status, rec.Code)
			if tt.location != "" {
				require.Equal(t, tt.location, rec.Header().Get("Location"))
				require.True(t, f.manager.IsAuthenticated())
			}
			if tt.body != "" {
				require.Contains(t, rec.Body.String(), tt.body)
				require.False(t, f.manager.IsAuthenticated())
			}
		})
	}
}

func TestLoginPage_KeepsNext(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/login?next=%2Fadmin%2Fview%2F3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `name="next" value="/admin/view/3"`)
}

func TestLoginPage_AuthenticatedRedirects(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	rec := f.do(t, http.MethodGet, "/admin/login", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t, withConfig(func(cfg *testConfig) { cfg.LoginRatePerMinute = 1 }))
	form := url.Values{"username": {testUsername}, "password": {"nope"}}

	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/admin/login", form).Code)

	rec := f.do(t, http.MethodPost, "/admin/login", form)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Contains(t, rec.Body.String(), "Too many login attempts")
	require.EqualValues(t, 1, f.backend.LoginCalls())
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	rec := f.do(t, http.MethodPost, "/admin/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/login", rec.Header().Get("Location"))
	require.False(t, f.manager.IsAuthenticated())
}

func TestDashboard_ListsApplications(t *testing.T) {
	f := newFixture(t)
	f.backend.AddApplication(sampleForm("Rahul Das"))
	f.backend.AddApplication(sampleForm("Amit Roy"))
	f.login(t)

	rec := f.do(t, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "2 registrations")
	require.Contains(t, body, "Rahul Das")
	require.Contains(t, body, `href="/admin/view/2"`)
}

func TestApplicationView(t *testing.T) {
	f := newFixture(t)
	app := f.backend.AddApplication(sampleForm("Rahul Das"))
	f.login(t)

	rec := f.do(t, http.MethodGet, "/admin/view/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), app.RegistrationNumber)

	rec = f.do(t, http.MethodGet, "/admin/view/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/view/abc", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplicationPrint_InlinesImages(t *testing.T) {
	f := newFixture(t)
	form := sampleForm("Rahul Das")
	form.ImageURL = "data:image/png;base64,iVBORw0KGgo"
	f.backend.AddApplication(form)
	f.login(t)

	rec := f.do(t, http.MethodGet, "/admin/view/1/print", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `src="data:image/png;base64,iVBORw0KGgo"`)
}

func TestApplicationDelete(t *testing.T) {
	f := newFixture(t)
	f.backend.AddApplication(sampleForm("Rahul Das"))
	f.login(t)

	rec := f.do(t, http.MethodPost, "/admin/view/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
	require.Empty(t, f.backend.Applications())
}

func TestFinancialReport(t *testing.T) {
	f := newFixture(t)
	f.backend.AddApplication(sampleForm("Rahul Das"))
	f.backend.AddApplication(sampleForm("Amit Roy"))
	f.login(t)

	entries := []struct {
		ledger string
		form   url.Values
	}{
		{"player_deposits", url.Values{"player_id": {"1"}, "month": {"January"}, "year": {"2025"}, "amount": {"500"}}},
		{"player_deposits", url.Values{"player_id": {"2"}, "month": {"January"}, "year": {"2025"}, "amount": {"500"}}},
		{"player_deposits", url.Values{"player_id": {"2"}, "month": {"February"}, "year": {"2025"}, "amount": {"500"}}},
		{"donations", url.Values{"donor_name": {"Local Trust"}, "month": {"January"}, "year": {"2025"}, "amount": {"250"}}},
		{"expenses", url.Values{"category": {"Referee Fees"}, "month": {"January"}, "year": {"2025"}, "amount": {"150.5"}}},
	}
	for _, e := range entries {
		rec := f.do(t, http.MethodPost, "/admin/financials/"+e.ledger, e.form)
		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodGet, "/admin/financials/report?month=January&year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "January 2025")
	require.Contains(t, body, "1000.00")
	require.Contains(t, body, "1250.00")
	require.Contains(t, body, "Referee Fees")
	require.Contains(t, body, "1099.50")
}

func TestAdmin_RejectedRefreshEndsSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.backend.RevokeAccessTokens()
	f.backend.RejectRefresh(true)

	rec := f.do(t, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/login?next=%2Fadmin%2Fdashboard", rec.Header().Get("Location"))
	require.False(t, f.manager.IsAuthenticated())
	require.False(t, f.manager.State().Snapshot().Authenticated())
}

func TestAdmin_ExpiredAccessTokenIsRefreshed(t *testing.T) {
	f := newFixture(t)
	f.backend.AddApplication(sampleForm("Rahul Das"))
	f.login(t)
	f.backend.RevokeAccessTokens()

	rec := f.do(t, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Rahul Das")
	require.EqualValues(t, 1, f.backend.RefreshCalls())
}

func TestSessionState(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "unauthenticated", got["phase"])
	require.Equal(t, false, got["authenticated"])
	require.Equal(t, false, got["initializing"])

	f.login(t)
	rec = f.do(t, http.MethodGet, "/admin/session", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, true, got["authenticated"])
	require.Contains(t, got, "user")
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/nowhere", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Page not found")
}

// answerOnPrefix makes the backend answer status for every path under prefix.
func answerOnPrefix(prefix string, status int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"detail":"denied"}`))
		})
	}
}

func TestAdmin_PersistentUnauthorizedKeepsSession(t *testing.T) {
	f := newFixture(t, withBackendWrap(answerOnPrefix("/api/v1/applications", http.StatusUnauthorized)))
	f.login(t)

	rec := f.do(t, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Header().Get("Location"))
	require.Contains(t, rec.Body.String(), "did not accept this session")
	require.True(t, f.manager.IsAuthenticated())
	require.EqualValues(t, 1, f.backend.RefreshCalls())

	// The login page still hands the held session back, and the screen it
	// returns to answers with the error page again instead of a redirect.
	rec = f.do(t, http.MethodGet, "/admin/login?next=%2Fadmin%2Fview%2F1", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/view/1", rec.Header().Get("Location"))

	rec = f.do(t, http.MethodGet, "/admin/view/1", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Header().Get("Location"))
	require.True(t, f.manager.IsAuthenticated())
}

func TestAdmin_ForbiddenRendersErrorPage(t *testing.T) {
	f := newFixture(t, withBackendWrap(answerOnPrefix("/api/v1/applications", http.StatusForbidden)))
	f.login(t)

	rec := f.do(t, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, rec.Header().Get("Location"))
	require.Contains(t, rec.Body.String(), "not allowed to do this")
	require.True(t, f.manager.IsAuthenticated())
	require.Zero(t, f.backend.RefreshCalls())

	rec = f.do(t, http.MethodPost, "/admin/view/1/delete", nil, "HX-Request", "true")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, rec.Header().Get("HX-Redirect"))
}

func TestApplicationEdit(t *testing.T) {
	f := newFixture(t)
	form := sampleForm("Rahul Das")
	form.ImageURL = "data:image/png;base64,iVBORw0KGgo"
	app := f.backend.AddApplication(form)
	f.login(t)

	rec := f.do(t, http.MethodGet, "/admin/edit/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `action="/admin/edit/1"`)
	require.Contains(t, body, `value="Rahul Das"`)

	rec = f.do(t, http.MethodPost, "/admin/edit/1", url.Values{
		"name":             {"Rahul Kumar Das"},
		"mobile_number":    {"9000000000"},
		"category":         {"U-16"},
		"address.district": {"Howrah"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/view/1", rec.Header().Get("Location"))

	apps := f.backend.Applications()
	require.Len(t, apps, 1)
	require.Equal(t, "Rahul Kumar Das", apps[0].Name)
	require.Equal(t, "U-16", apps[0].Category)
	require.Equal(t, "Howrah", apps[0].Address.District)
	require.Equal(t, app.RegistrationNumber, apps[0].RegistrationNumber)
	require.Equal(t, form.ImageURL, apps[0].ImageURL)
}

func TestApplicationEdit_Invalid(t *testing.T) {
	f := newFixture(t)
	f.backend.AddApplication(sampleForm("Rahul Das"))
	f.login(t)

	rec := f.do(t, http.MethodPost, "/admin/edit/1", url.Values{"name": {"Rahul Das"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Name and mobile number are required")
	require.Equal(t, "9876543210", f.backend.Applications()[0].MobileNumber)

	rec = f.do(t, http.MethodGet, "/admin/edit/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
