package errors_test

import (
	"fmt"
	"testing"

	apperrors "github.com/bafcc/camp-admin/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, apperrors.Wrapf(nil, "login %s", "coach1"))
	})

	t.Run("keeps chain", func(t *testing.T) {
		err := apperrors.Wrapf(apperrors.ErrRefreshRejected, "refresh for %s", "coach1")
		require.ErrorIs(t, err, apperrors.ErrRefreshRejected)
		require.Equal(t, "refresh for coach1: refresh rejected", err.Error())
	})
}

func TestTransport(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := apperrors.Transport(cause)

	require.ErrorIs(t, err, apperrors.ErrTransport)
	require.ErrorIs(t, err, cause)
	require.NoError(t, apperrors.Transport(nil))
	require.False(t, apperrors.Is(err, apperrors.ErrCredentialsRejected))
}
