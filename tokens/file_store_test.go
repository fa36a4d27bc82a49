package tokens_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bafcc/camp-admin/tokens"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *tokens.FileStore {
	t.Helper()
	return tokens.NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
}

func TestFileStore_SaveLoad(t *testing.T) {
	fs := newStore(t)

	_, ok := fs.LoadAccessToken()
	require.False(t, ok)

	require.NoError(t, fs.Save("access-1", "refresh-1"))

	access, ok := fs.LoadAccessToken()
	require.True(t, ok)
	require.Equal(t, "access-1", access)
	refresh, ok := fs.LoadRefreshToken()
	require.True(t, ok)
	require.Equal(t, "refresh-1", refresh)

	data, err := os.ReadFile(fs.Path())
	require.NoError(t, err)
	doc := map[string]string{}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, map[string]string{
		"bafcc_access_token":  "access-1",
		"bafcc_refresh_token": "refresh-1",
	}, doc)
}

func TestFileStore_SaveReplacesPair(t *testing.T) {
	fs := newStore(t)
	require.NoError(t, fs.Save("access-1", "refresh-1"))
	require.NoError(t, fs.Save("access-2", "refresh-2"))

	access, _ := fs.LoadAccessToken()
	refresh, _ := fs.LoadRefreshToken()
	require.Equal(t, "access-2", access)
	require.Equal(t, "refresh-2", refresh)

	entries, err := os.ReadDir(filepath.Dir(fs.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_Clear(t *testing.T) {
	fs := newStore(t)

	// Clearing an empty store never fails.
	fs.Clear()

	require.NoError(t, fs.Save("a", "r"))
	fs.Clear()

	_, ok := fs.LoadAccessToken()
	require.False(t, ok)
	_, ok = fs.LoadRefreshToken()
	require.False(t, ok)

	fs.Clear()
}

func TestFileStore_UnreadableIsAbsent(t *testing.T) {
	fs := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(fs.Path()), 0o700))
	require.NoError(t, os.WriteFile(fs.Path(), []byte("{not json"), 0o600))

	_, ok := fs.LoadAccessToken()
	require.False(t, ok)
	_, ok = fs.LoadRefreshToken()
	require.False(t, ok)

	// A later save recovers the store.
	require.NoError(t, fs.Save("a", "r"))
	access, ok := fs.LoadAccessToken()
	require.True(t, ok)
	require.Equal(t, "a", access)
}

func TestFileStore_PairIsNeverTorn(t *testing.T) {
	fs := newStore(t)
	require.NoError(t, fs.Save("access-0", "refresh-0"))

	pairs := map[string]string{
		"access-0": "refresh-0",
		"access-1": "refresh-1",
		"access-2": "refresh-2",
	}

	var wg sync.WaitGroup
	for i := 1; i <= 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				_ = fs.Save("access-"+string(rune('0'+i)), "refresh-"+string(rune('0'+i)))
			}
		}(i)
	}
	wg.Wait()

	access, ok := fs.LoadAccessToken()
	require.True(t, ok)
	refresh, ok := fs.LoadRefreshToken()
	require.True(t, ok)
	require.Equal(t, pairs[access], refresh)
}
