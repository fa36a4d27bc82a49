package session_test

import (
	"testing"

	"github.com/bafcc/camp-admin/sessionstate"
	"github.com/stretchr/testify/require"
)

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.manager.Wait()

	var published []sessionstate.State
	unsubscribe := f.holder.Subscribe(func(s sessionstate.State) {
		published = append(published, s)
	})
	defer unsubscribe()

	f.manager.Logout(t.Context())

	require.Len(t, published, 1)
	require.False(t, published[0].Authenticated())
	require.Nil(t, published[0].User)
	require.False(t, f.manager.IsAuthenticated())
	_, ok := f.store.LoadAccessToken()
	require.False(t, ok)
	_, ok = f.store.LoadRefreshToken()
	require.False(t, ok)
	require.EqualValues(t, 1, f.backend.LogoutCalls())
}

func TestLogout_BackendDown(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.manager.Wait()
	f.server.Close()

	f.manager.Logout(t.Context())

	require.False(t, f.manager.IsAuthenticated())
	require.False(t, f.holder.Snapshot().Authenticated())
	_, ok := f.store.LoadRefreshToken()
	require.False(t, ok)
}

func TestLogout_WithoutSessionSendsNothing(t *testing.T) {
	f := newFixture(t)

	f.manager.Logout(t.Context())
	require.Zero(t, f.backend.LogoutCalls())
}
