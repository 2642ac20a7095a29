package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/olsync/olsync/models"
)

// Store persists one [models.SessionInfo] as a JSON file (by default
// ~/.olsyncinfo). All methods are safe for concurrent use.
type Store struct {
	path string

	mu sync.Mutex
}

// NewStore returns a Store backed by the file at path. The file does not
// have to exist yet.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the cached session. It returns ErrNotLoggedIn when no cache
// file exists and ErrSessionExpired when the session cookie has expired;
// an expired cache file is left in place so the caller can inspect it.
func (s *Store) Load() (*models.SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var info models.SessionInfo
	if err = json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}

	if info.SessionCookie.HasExpired() {
		return nil, ErrSessionExpired
	}

	return &info, nil
}

// Save writes the session to disk with 0600 permissions, creating parent
// directories as needed.
func (s *Store) Save(info models.SessionInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}

	payload, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session info: %w", err)
	}

	if err = os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	return nil
}

// Remove deletes the cache file. Removing a non-existent cache is not an
// error.
func (s *Store) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
