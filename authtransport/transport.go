// Package authtransport attaches the session's access token to backend
// requests and silently refreshes it once when the backend answers 401.
package authtransport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	apperrors "github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// RequestIDHeader correlates a request with its retry in the backend logs.
const RequestIDHeader = "X-Request-ID"

// Credentials is the part of the session the transport needs.
type Credentials interface {
	// AccessToken returns the token currently held, or "".
	AccessToken() string
	// RefreshFor returns a token newer than stale, refreshing when nobody else
	// has done so yet.
	RefreshFor(ctx context.Context, stale string) (string, error)
}

type action int

const (
	pass action = iota
	refreshAndRetry
)

// decide is the whole retry policy: one refresh-and-resend per request chain,
// and only when the body can be sent again.
func decide(status, attempt int, replayable bool) action {
	if status == http.StatusUnauthorized && attempt == 0 && replayable {
		return refreshAndRetry
	}
	return pass
}

var _ http.RoundTripper = (*Transport)(nil)

// Transport is an http.RoundTripper for the backend origin.
type Transport struct {
	base      http.RoundTripper
	origin    *url.URL
	creds     Credentials
	onExpired func(error)
}

type Option func(*Transport)

// WithBase sets the RoundTripper used to send requests.
func WithBase(rt http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = rt
	}
}

// WithSessionExpired registers fn, called once per request chain when the
// refresh token is missing or rejected.
func WithSessionExpired(fn func(error)) Option {
	return func(t *Transport) {
		t.onExpired = fn
	}
}

// New returns a transport authorizing requests to origin.
func New(origin string, creds Credentials, opts ...Option) (*Transport, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("authtransport: origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("authtransport: origin %q must be absolute", origin)
	}
	t := &Transport{
		base:   http.DefaultTransport,
		origin: u,
		creds:  creds,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.sameOrigin(req.URL) {
		return t.base.RoundTrip(req)
	}

	r := req.Clone(req.Context())
	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, uuid.NewString())
	}

	var once sync.Once
	expired := func(err error) {
		once.Do(func() {
			if t.onExpired != nil {
				t.onExpired(err)
			}
		})
	}
	return t.roundTrip(r, 0, expired)
}

func (t *Transport) roundTrip(req *http.Request, attempt int, expired func(error)) (*http.Response, error) {
	out := req
	if attempt > 0 {
		out = req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			out.Body = body
		}
	}

	token := t.creds.AccessToken()
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(out)
	} else {
		out.Header.Del("Authorization")
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if decide(resp.StatusCode, attempt, replayable(req)) == pass {
		return resp, nil
	}

	reqLog := log.With().
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Str("path", req.URL.Path).
		Logger()

	if _, err := t.creds.RefreshFor(req.Context(), token); err != nil {
		if apperrors.Is(err, apperrors.ErrRefreshRejected) || apperrors.Is(err, apperrors.ErrNoRefreshToken) {
			reqLog.Info().Err(err).Msg("session expired")
			expired(err)
			return resp, nil
		}
		discard(resp)
		reqLog.Warn().Err(err).Msg("token refresh failed")
		return nil, err
	}

	discard(resp)
	metrics.TransportRetries.Inc()
	reqLog.Debug().Msg("resending after token refresh")
	return t.roundTrip(req, attempt+1, expired)
}

func (t *Transport) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, t.origin.Scheme) && strings.EqualFold(u.Host, t.origin.Host)
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
}
