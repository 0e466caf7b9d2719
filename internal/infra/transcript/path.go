package transcript

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultFileName = "transcripts.db"

// ResolveDefaultPath returns the default location of the transcript database.
func ResolveDefaultPath() string {
	base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME"))
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
			base = filepath.Join(home, ".local", "share")
		}
	}
	if base == "" {
		base = "."
	}
	return filepath.Join(base, "dcl", defaultFileName)
}
