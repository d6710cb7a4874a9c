// Package testutil provides shared helpers for kondate tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kondate-dev/kondate/internal/config"
)

// TempDir creates a temporary directory and returns a cleanup function.
func TempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "kondate-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

// NewTestConfig creates a config rooted in a temporary directory.
func NewTestConfig(t *testing.T) (*config.Config, func()) {
	t.Helper()
	tmpDir, cleanup := TempDir(t)

	cfg := &config.Config{
		HomeDir:    tmpDir,
		DBPath:     filepath.Join(tmpDir, "kondate.db"),
		ConfigFile: filepath.Join(tmpDir, "config.toml"),
	}
	return cfg, cleanup
}
