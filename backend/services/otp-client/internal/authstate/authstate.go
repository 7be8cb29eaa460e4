package authstate

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"ibanking/backend/services/otp-client/internal/api"
)

// State is the persisted session blob: the bearer token plus a cached
// profile snapshot used until the server copy is re-fetched.
type State struct {
	Token   string      `json:"token"`
	Profile api.Profile `json:"profile"`
}

// Store persists the session state as a JSON file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the saved state. A missing file returns (nil, nil); a
// corrupt file is treated the same and discarded on the next Save.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, nil
	}
	if state.Token == "" {
		return nil, nil
	}
	return &state, nil
}

// Save writes the state atomically via a temp file rename.
func (s *Store) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear removes the saved state. Missing files are not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
