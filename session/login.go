package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/internal/metrics"
	"github.com/bafcc/camp-admin/oauthmodel"
	"github.com/bafcc/camp-admin/sessionstate"
	"github.com/bafcc/camp-admin/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Login exchanges credentials for a token pair.
//
// It returns true once the session is held and the provisional state is
// published; the real profile is fetched in the background. Rejected
// credentials return false and a nil error. Any other failure returns an
// error matching ErrTransport.
func (m *Manager) Login(ctx context.Context, username, password string) (bool, error) {
	form := oauthmodel.LoginForm(username, password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.GetLoginURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("login: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.plain.Do(req)
	if err != nil {
		metrics.SessionLogins.WithLabelValues(metrics.OutcomeError).Inc()
		return false, apperrors.Transport(fmt.Errorf("login: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case credentialsRejected(resp.StatusCode):
		metrics.SessionLogins.WithLabelValues(metrics.OutcomeRejected).Inc()
		log.Info().Str("username", username).Int("status", resp.StatusCode).Msg("login rejected")
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.SessionLogins.WithLabelValues(metrics.OutcomeError).Inc()
		return false, apperrors.Transport(fmt.Errorf("login: unexpected status %d", resp.StatusCode))
	}

	var pair oauthmodel.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		metrics.SessionLogins.WithLabelValues(metrics.OutcomeError).Inc()
		return false, apperrors.Transport(fmt.Errorf("login: decode json: %w", err))
	}
	if !pair.Complete() {
		metrics.SessionLogins.WithLabelValues(metrics.OutcomeError).Inc()
		return false, apperrors.Transport(fmt.Errorf("login: response without token pair"))
	}

	m.lock.Lock()
	m.token = &oauth2.Token{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}
	m.epoch++
	epoch := m.epoch
	if err := m.store.Save(pair.AccessToken, pair.RefreshToken); err != nil {
		log.Warn().Err(err).Msg("persisting tokens after login")
	}
	m.lock.Unlock()

	m.publish(epoch, sessionstate.Provisional(users.Placeholder(username)))
	metrics.SessionLogins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info().Str("username", username).Msg("logged in")

	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		m.confirmProfile(epoch)
	}()
	return true, nil
}

// confirmProfile replaces the placeholder profile with the backend one.
// On failure the placeholder stays.
func (m *Manager) confirmProfile(epoch uint64) {
	ctx, cancel := m.backgroundContext()
	defer cancel()

	profile, err := m.CurrentUser(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("fetching profile after login")
		return
	}
	m.publish(epoch, sessionstate.Confirmed(profile))
}

func credentialsRejected(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
