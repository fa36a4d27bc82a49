package session_test

import (
	"net/http"
	"testing"

	apperrors "github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/internal/metrics"
	"github.com/bafcc/camp-admin/sessionstate"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(metrics.SessionLogins.WithLabelValues(metrics.OutcomeSuccess))

	ok, err := f.manager.Login(t.Context(), testUsername, testPassword)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, f.manager.IsAuthenticated())

	// The placeholder is published before Login returns.
	s := f.holder.Snapshot()
	require.True(t, s.Authenticated())
	require.NotNil(t, s.User)
	require.Equal(t, testUsername, s.User.Username)

	access, ok := f.store.LoadAccessToken()
	require.True(t, ok)
	require.Equal(t, f.manager.AccessToken(), access)
	_, ok = f.store.LoadRefreshToken()
	require.True(t, ok)

	s = waitForState(t, f.holder, confirmed)
	require.Equal(t, testUserID, s.User.ID)
	require.Equal(t, "Coach One", s.User.FullName)
	require.False(t, s.User.IsPlaceholder())

	require.Equal(t, before+1, testutil.ToFloat64(metrics.SessionLogins.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)

	ok, err := f.manager.Login(t.Context(), testUsername, "wrong")
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, f.manager.IsAuthenticated())

	_, stored := f.store.LoadAccessToken()
	require.False(t, stored)
	require.False(t, f.holder.Snapshot().Authenticated())
	require.Zero(t, f.store.Saves())
}

func TestLogin_RejectedStatuses(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			f := newFixture(t, withHandler(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(status)
				})
			}))

			ok, err := f.manager.Login(t.Context(), testUsername, testPassword)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestLogin_TransportFailures(t *testing.T) {
	t.Run("backend down", func(t *testing.T) {
		f := newFixture(t)
		f.server.Close()

		ok, err := f.manager.Login(t.Context(), testUsername, testPassword)
		require.False(t, ok)
		require.ErrorIs(t, err, apperrors.ErrTransport)
	})

	t.Run("server error", func(t *testing.T) {
		f := newFixture(t, withHandler(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			})
		}))

		ok, err := f.manager.Login(t.Context(), testUsername, testPassword)
		require.False(t, ok)
		require.ErrorIs(t, err, apperrors.ErrTransport)
		require.False(t, f.manager.IsAuthenticated())
	})

	t.Run("incomplete pair", func(t *testing.T) {
		f := newFixture(t, withHandler(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"bearer"}`))
			})
		}))

		ok, err := f.manager.Login(t.Context(), testUsername, testPassword)
		require.False(t, ok)
		require.ErrorIs(t, err, apperrors.ErrTransport)
	})
}

func TestLogin_ProvisionalBeforeProfile(t *testing.T) {
	f := newFixture(t)
	release := f.backend.GateMe()
	defer release()

	f.login(t)

	s := f.holder.Snapshot()
	require.Equal(t, sessionstate.AuthenticatedProvisional, s.Phase)
	require.True(t, s.User.IsPlaceholder())
	require.True(t, s.User.IsAdmin)
	require.True(t, s.User.IsActive)

	release()
	s = waitForState(t, f.holder, confirmed)
	require.Equal(t, testUserID, s.User.ID)
}

func TestLogin_ProfileFailureKeepsPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.backend.FailMe(1)

	f.login(t)
	f.manager.Wait()

	s := f.holder.Snapshot()
	require.Equal(t, sessionstate.AuthenticatedProvisional, s.Phase)
	require.Equal(t, testUsername, s.User.Username)
	require.True(t, f.manager.IsAuthenticated())
}
