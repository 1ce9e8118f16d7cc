package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Remote remembers the API session the CLI is driving between invocations.
type Remote struct {
	BaseURL   string `json:"base_url"`
	SessionID string `json:"session_id"`
}

type RemoteStore struct {
	Dir string
}

func (s RemoteStore) path() (string, error) {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, "remote.json"), nil
}

func (s RemoteStore) Save(r Remote) error {
	path, err := s.path()
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

func (s RemoteStore) Load() (Remote, error) {
	path, err := s.path()
	if err != nil {
		return Remote{}, err
	}
	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Remote{}, fmt.Errorf("no remote session; run `mono remote start` first")
	}
	if err != nil {
		return Remote{}, err
	}
	var r Remote
	if err := json.Unmarshal(body, &r); err != nil {
		return Remote{}, err
	}
	if strings.TrimSpace(r.SessionID) == "" {
		return Remote{}, fmt.Errorf("no session id found in remote state")
	}
	return r, nil
}

func (s RemoteStore) Clear() error {
	path, err := s.path()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
