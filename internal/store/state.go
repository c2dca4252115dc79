package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunState is the report written after a successful generation.
type RunState struct {
	LastGenerated time.Time `json:"last_generated"`
	Events        int       `json:"events"`
	Skipped       int       `json:"skipped"`
	Source        string    `json:"source"`
}

func LoadRunState(path string) (RunState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RunState{}, err
	}
	var s RunState
	if err := json.Unmarshal(b, &s); err != nil {
		return RunState{}, fmt.Errorf("decode run state %s: %w", path, err)
	}
	return s, nil
}

// SaveRunState writes s next to path and renames it into place.
func SaveRunState(path string, s RunState) error {
	b, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
