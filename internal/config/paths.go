package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DirEnv overrides the directory holding config.yaml and the history file.
const DirEnv = "FFPOPUP_CONFIG_DIR"

// Dir is where ffpopup keeps config.yaml and its opened-path history:
// $FFPOPUP_CONFIG_DIR when set, else an "ffpopup" directory in the user
// config dir, else ~/.config/ffpopup.
func Dir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(DirEnv)); dir != "" {
		return filepath.Clean(dir), nil
	}
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, "ffpopup"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("no config directory: set " + DirEnv)
	}
	return filepath.Join(home, ".config", "ffpopup"), nil
}

// File returns the default config file path.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// HistoryFile returns the path of the opened-files history.
func HistoryFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}
