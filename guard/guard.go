// Package guard decides whether an admin screen may be shown and redirects
// to the login screen when it may not.
package guard

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bafcc/camp-admin/sessionstate"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultLoginPath = "/admin/login"
	NextParam        = "next"
)

type Status int

const (
	Loading Status = iota
	Authorized
	Redirecting
)

func (s Status) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Redirecting:
		return "redirecting"
	default:
		return "loading"
	}
}

// Decision is the outcome for one protected request. Redirect is set when
// Status is Redirecting.
type Decision struct {
	Status   Status
	Redirect string
}

type Guard struct {
	view      sessionstate.View
	timeout   time.Duration
	loginPath string
}

type Option func(*Guard)

func WithTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithLoginPath(path string) Option {
	return func(g *Guard) {
		g.loginPath = path
	}
}

func New(view sessionstate.View, opts ...Option) *Guard {
	g := &Guard{
		view:      view,
		timeout:   DefaultTimeout,
		loginPath: DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Current returns the decision for the state published right now, which is
// Loading while the session is being restored.
func (g *Guard) Current() Decision {
	return g.decide(g.view.Snapshot())
}

// Decide waits while the session is being restored, at most for the guard
// timeout, and then authorizes or redirects. The redirect points at the
// login screen without a return path; Protect adds one.
func (g *Guard) Decide(ctx context.Context) Decision {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	for {
		s, changed := g.view.Watch()
		if d := g.decide(s); d.Status != Loading {
			return d
		}
		select {
		case <-changed:
		case <-ctx.Done():
			log.Warn().Dur("timeout", g.timeout).Msg("gave up waiting for session restore")
			return Decision{Status: Redirecting, Redirect: g.loginPath}
		}
	}
}

func (g *Guard) decide(s sessionstate.State) Decision {
	switch {
	case s.Initializing:
		return Decision{Status: Loading}
	case s.Authenticated():
		return Decision{Status: Authorized}
	default:
		return Decision{Status: Redirecting, Redirect: g.loginPath}
	}
}

// Protect serves next only to an authenticated session.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Decide(r.Context())
		if d.Status == Authorized {
			next.ServeHTTP(w, r)
			return
		}
		Redirect(w, r, g.LoginRedirect(r.URL.RequestURI()))
	})
}

// LoginRedirect returns the login URL that comes back to next afterwards.
func (g *Guard) LoginRedirect(next string) string {
	next = SafeNext(next)
	if next == "" || next == g.loginPath {
		return g.loginPath
	}
	return g.loginPath + "?" + url.Values{NextParam: {next}}.Encode()
}

// SafeNext returns next when it is a path on this server and "" otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}

// Redirect sends the browser to path. HTMX requests get an HX-Redirect
// instruction instead of a 303.
func Redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
