package tokens

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

var _ Store = (*FileStore)(nil)

// FileStore persists the token pair as a single JSON document.
type FileStore struct {
	path string
	lock sync.RWMutex
}

// NewFileStore returns a store writing to path. The parent directory is
// created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document location.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Save(access, refresh string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	data, err := json.Marshal(map[string]string{
		AccessTokenKey:  access,
		RefreshTokenKey: refresh,
	})
	if err != nil {
		return err
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	// Write to a sibling temp file and rename over the document so the pair is
	// replaced in one step.
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (fs *FileStore) LoadAccessToken() (string, bool) {
	return fs.load(AccessTokenKey)
}

func (fs *FileStore) LoadRefreshToken() (string, bool) {
	return fs.load(RefreshTokenKey)
}

// Clear removes the document. A missing document is already clear.
func (fs *FileStore) Clear() {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", fs.path).Msg("clearing token store")
	}
}

func (fs *FileStore) load(key string) (string, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", fs.path).Msg("reading token store")
		}
		return "", false
	}

	doc := map[string]string{}
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn().Err(err).Str("path", fs.path).Msg("decoding token store")
		return "", false
	}

	v, ok := doc[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
