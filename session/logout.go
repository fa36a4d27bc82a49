package session

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Logout ends the session locally and publishes the logged-out state before
// telling the backend. The backend call is best effort.
func (m *Manager) Logout(ctx context.Context) {
	access := m.end()
	log.Info().Msg("logged out")
	if access == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.GetHTTPTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.GetLogoutURL(), http.NoBody)
	if err != nil {
		log.Err(err).Msg("logout: create request")
		return
	}
	(&oauth2.Token{AccessToken: access, TokenType: "Bearer"}).SetAuthHeader(req)

	resp, err := m.plain.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("logout: backend not notified")
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Debug().Int("status", resp.StatusCode).Msg("logout: backend answered")
	}
}
