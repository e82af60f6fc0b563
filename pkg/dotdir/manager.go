// Package dotdir locates the ragdesk state directory.
//
// The directory holds config.toml, the history database and the selection:
// the tenant and document that ask and chat use when none is given on the
// command line. A project can pin its own selection by keeping a .ragdesk/
// directory at its root; commands run anywhere below it pick it up.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".ragdesk"

	// EnvDir names a state directory, taking precedence over the search.
	EnvDir = "RAGDESK_DIR"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the state directory, creating it if
// needed. The first of these wins:
//  1. overrideDir (the --config-dir flag)
//  2. $RAGDESK_DIR
//  3. .ragdesk/ in the working directory or its nearest ancestor below $HOME
//  4. ~/.ragdesk/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir := overrideDir
	if dir == "" {
		dir = os.Getenv(EnvDir)
	}

	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}

		dir = m.projectDir(home)
		if dir == "" {
			dir = filepath.Join(home, dirName)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating ragdesk directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// projectDir walks up from the working directory looking for .ragdesk/. The
// walk ends at home or the filesystem root; "" means nothing was found.
func (m *Manager) projectDir(home string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for dir := cwd; ; {
		if dir == home {
			return ""
		}
		candidate := filepath.Join(dir, dirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
