package session

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// IsTokenLikelyExpired reports whether the held access token is expired or
// expires within the configured margin. The signature is not checked; the
// backend remains the authority.
func (m *Manager) IsTokenLikelyExpired() bool {
	return TokenLikelyExpired(m.AccessToken(), m.cfg.GetExpiryMargin())
}

// TokenLikelyExpired is true when token has no readable exp claim or exp is
// not later than now plus margin.
func TokenLikelyExpired(token string, margin time.Duration) bool {
	exp := tokenExpiry(token)
	if exp.IsZero() {
		return true
	}
	return !NowTimeFunc().Add(margin).Before(exp)
}

// tokenExpiry returns the exp claim of token, or the zero time.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
