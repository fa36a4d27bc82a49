package authtransport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		attempt    int
		replayable bool
		want       action
	}{
		{name: "success", status: http.StatusOK, want: pass, replayable: true},
		{name: "forbidden is not retried", status: http.StatusForbidden, want: pass, replayable: true},
		{name: "first 401", status: http.StatusUnauthorized, want: refreshAndRetry, replayable: true},
		{name: "second 401", status: http.StatusUnauthorized, attempt: 1, want: pass, replayable: true},
		{name: "401 with one-shot body", status: http.StatusUnauthorized, want: pass},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, decide(tc.status, tc.attempt, tc.replayable))
		})
	}
}
