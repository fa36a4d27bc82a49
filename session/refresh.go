package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/internal/metrics"
	"github.com/bafcc/camp-admin/oauthmodel"
	"github.com/rs/zerolog/log"
)

const refreshKey = "refresh"

// RefreshAccessToken obtains a new access token. Concurrent callers share
// one backend request and its outcome.
//
// Without a refresh token it returns ErrNoRefreshToken and sends nothing.
// When the backend rejects the refresh the session is ended and
// ErrRefreshRejected is returned. Transport failures keep the session.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	return m.refresh(ctx, "", false)
}

// RefreshFor returns an access token newer than stale. When another caller
// already replaced stale, the current token is returned without a request.
func (m *Manager) RefreshFor(ctx context.Context, stale string) (string, error) {
	if current := m.AccessToken(); current != "" && current != stale {
		return current, nil
	}
	return m.refresh(ctx, stale, true)
}

func (m *Manager) refresh(ctx context.Context, stale string, checkStale bool) (string, error) {
	ch := m.flight.DoChan(refreshKey, func() (any, error) {
		// A flight that finished just before this one started may already
		// have replaced stale.
		if checkStale {
			if current := m.AccessToken(); current != "" && current != stale {
				return current, nil
			}
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.GetHTTPTimeout())
		defer cancel()
		return m.doRefresh(fctx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	m.lock.RLock()
	var refreshToken string
	if m.token != nil {
		refreshToken = m.token.RefreshToken
	}
	epoch := m.epoch
	m.lock.RUnlock()

	if refreshToken == "" {
		metrics.SessionRefreshes.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return "", &expiredError{epoch: epoch, err: apperrors.ErrNoRefreshToken}
	}

	body, err := json.Marshal(oauthmodel.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", fmt.Errorf("refresh: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.GetRefreshURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("refresh: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.plain.Do(req)
	if err != nil {
		metrics.SessionRefreshes.WithLabelValues(metrics.OutcomeError).Inc()
		return "", apperrors.Transport(fmt.Errorf("refresh: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		metrics.SessionRefreshes.WithLabelValues(metrics.OutcomeError).Inc()
		return "", apperrors.Transport(fmt.Errorf("refresh: unexpected status %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", m.refreshRejected(epoch, fmt.Sprintf("status %d", resp.StatusCode))
	}

	var out oauthmodel.RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.SessionRefreshes.WithLabelValues(metrics.OutcomeError).Inc()
		return "", apperrors.Transport(fmt.Errorf("refresh: decode json: %w", err))
	}
	if out.AccessToken == "" {
		return "", m.refreshRejected(epoch, "response without access token")
	}

	m.lock.Lock()
	if m.epoch != epoch || m.token == nil {
		m.lock.Unlock()
		metrics.SessionRefreshes.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return "", &expiredError{epoch: epoch, err: fmt.Errorf("%w: session ended during refresh", apperrors.ErrNoRefreshToken)}
	}
	m.token.AccessToken = out.AccessToken
	if out.TokenType != "" {
		m.token.TokenType = out.TokenType
	}
	if out.RefreshToken != "" {
		m.token.RefreshToken = out.RefreshToken
	}
	if err := m.store.Save(m.token.AccessToken, m.token.RefreshToken); err != nil {
		log.Warn().Err(err).Msg("persisting tokens after refresh")
	}
	m.lock.Unlock()

	metrics.SessionRefreshes.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Debug().Bool("rotated", out.RefreshToken != "").Msg("access token refreshed")
	return out.AccessToken, nil
}

// refreshRejected ends the session the rejected refresh token belonged to.
func (m *Manager) refreshRejected(epoch uint64, reason string) error {
	metrics.SessionRefreshes.WithLabelValues(metrics.OutcomeRejected).Inc()
	if m.endIf(epoch) {
		metrics.ForcedLogouts.Inc()
		log.Warn().Str("reason", reason).Msg("refresh rejected, session ended")
	}
	return &expiredError{epoch: epoch, err: apperrors.Wrapf(apperrors.ErrRefreshRejected, "refresh: %s", reason)}
}

// expiredError is a refresh failure that ends the session started at epoch.
// Sessions started later are not affected by it.
type expiredError struct {
	epoch uint64
	err   error
}

func (e *expiredError) Error() string { return e.err.Error() }

func (e *expiredError) Unwrap() error { return e.err }
