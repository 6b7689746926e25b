// Package credfile persists the bearer token between runs: a single
// key-value entry in a 0600 JSON file under the user config dir. Absence of
// the file (or of the entry) means logged out.
package credfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const fileName = "credentials.json"

// ErrNoToken is returned by Load when no token has been persisted.
var ErrNoToken = errors.New("credfile: no stored token")

type credentials struct {
	Token string `json:"token"`
}

// Store reads and writes the persisted token. The zero value is not usable;
// construct with New or NewAt.
type Store struct {
	path string
}

// New places the credentials file under the user config dir, e.g.
// ~/.config/drivermate/credentials.json on Linux.
func New() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	dir = filepath.Join(dir, "drivermate")
	if err := os.MkdirAll(dir, 0o700); err != nil { // restrict directory
		return nil, err
	}
	return &Store{path: filepath.Join(dir, fileName)}, nil
}

// NewAt uses an explicit file path. Tests point this at a temp dir.
func NewAt(path string) *Store {
	return &Store{path: path}
}

// Save persists the token, replacing any previous one.
func (s *Store) Save(token string) error {
	if token == "" {
		return fmt.Errorf("credfile: empty token")
	}
	data, err := json.MarshalIndent(credentials{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load returns the persisted token, or ErrNoToken when none exists.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}
		return "", err
	}
	var c credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return "", err
	}
	if c.Token == "" {
		return "", ErrNoToken
	}
	return c.Token, nil
}

// Clear removes the persisted token. Clearing an absent token is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
