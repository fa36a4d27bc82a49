package session

import (
	"context"

	"github.com/bafcc/camp-admin/sessionstate"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Initialize restores a stored session. It runs once; later and concurrent
// calls return after the first has finished.
//
// With stored tokens the profile is fetched, retried once after the
// configured delay, and the session is logged out if both attempts fail.
// Initializing is cleared when it returns.
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		m.initialize(ctx)
		m.state.Update(func(s sessionstate.State) sessionstate.State {
			s.Initializing = false
			return s
		})
	})
}

func (m *Manager) initialize(ctx context.Context) {
	access, hasAccess := m.store.LoadAccessToken()
	refresh, hasRefresh := m.store.LoadRefreshToken()
	if !hasAccess && !hasRefresh {
		log.Debug().Msg("no stored session")
		return
	}

	m.lock.Lock()
	if m.token != nil {
		// A login finished before the restore started.
		m.lock.Unlock()
		return
	}
	m.token = &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}
	m.epoch++
	epoch := m.epoch
	m.lock.Unlock()

	profile, err := m.CurrentUser(ctx)
	// A rejected refresh has already ended the session; there is nothing
	// left to retry with.
	if err != nil && m.currentEpoch() == epoch {
		log.Warn().Err(err).Dur("retry_in", m.cfg.GetInitRetryDelay()).Msg("restoring session")
		if serr := m.sleep(ctx, m.cfg.GetInitRetryDelay()); serr == nil {
			profile, err = m.CurrentUser(ctx)
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			// Shutting down; the stored tokens stay for the next start.
			m.lock.Lock()
			if m.epoch == epoch {
				m.token = nil
				m.epoch++
			}
			m.lock.Unlock()
			return
		}
		log.Warn().Err(err).Msg("stored session could not be restored")
		if m.currentEpoch() == epoch {
			m.Logout(ctx)
		}
		return
	}

	m.publish(epoch, sessionstate.Confirmed(profile))
	log.Info().Str("username", profile.Username).Msg("session restored")
}
