package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	browserStateDir  = ".booking_automation"
	browserStateFile = "state.json"
)

// BrowserState locates the cookies and local storage saved between runs
type BrowserState struct {
	path string
}

// NewBrowserState - creates the state location, defaulting to the user's home directory
func NewBrowserState(path string) (*BrowserState, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		path = filepath.Join(homeDir, browserStateDir, browserStateFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &BrowserState{path: path}, nil
}

// Path - returns the state file path
func (s *BrowserState) Path() string {
	return s.path
}

// Exists - reports whether a previous run saved state
func (s *BrowserState) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load - reads the saved state
func (s *BrowserState) Load() ([]byte, error) {
	return os.ReadFile(s.path)
}

// Clear - removes saved state so the next run starts fresh
func (s *BrowserState) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
