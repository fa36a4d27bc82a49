package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/users"
)

// CurrentUser fetches the profile of the session holder through the
// authorizing client, so an expired access token is renewed on the way.
// It returns nil on any failure.
func (m *Manager) CurrentUser(ctx context.Context) (*users.Profile, error) {
	if !m.hasTokens() {
		return nil, apperrors.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.GetMeURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("me: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.authed.Do(req)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTransport) {
			return nil, err
		}
		return nil, apperrors.Transport(fmt.Errorf("me: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, apperrors.Transport(fmt.Errorf("me: unexpected status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", apperrors.ErrProfileFetch, resp.StatusCode)
	}

	var profile users.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode json: %w", apperrors.ErrProfileFetch, err)
	}
	return &profile, nil
}
