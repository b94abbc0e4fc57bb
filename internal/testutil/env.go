package testutil

import (
	"path/filepath"
	"testing"
)

// ConfigHome points the user config directory at a fresh temp dir for the
// rest of the test and returns the ffpopup config file inside it.
func ConfigHome(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	t.Setenv("HOME", base)
	t.Setenv("FFPOPUP_CONFIG_DIR", "")
	return filepath.Join(base, "ffpopup", "config.yaml")
}
