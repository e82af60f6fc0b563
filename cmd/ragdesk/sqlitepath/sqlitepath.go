// Package sqlitepath resolves the location of the SQLite history database.
package sqlitepath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/ragdesk/pkg/dotdir"
)

// DefaultFile is the history database file name inside a .ragdesk/ directory.
const DefaultFile = "history.db"

// ResolveSQLitePath returns override when set. Otherwise it returns the first
// existing database among the XDG data dir and the resolved .ragdesk/
// directory, falling back to a new database in the .ragdesk/ directory.
func ResolveSQLitePath(override, configDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", err
	}
	fallback := filepath.Join(target, DefaultFile)

	for _, candidate := range sqliteCandidates(fallback) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return fallback, nil
}

func sqliteCandidates(fallback string) []string {
	var candidates []string

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append(candidates, filepath.Join(xdgHome, "ragdesk", DefaultFile))
	}

	return append(candidates, fallback)
}
