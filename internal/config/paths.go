package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the replctl config directory under the user config base.
// On Linux, this typically resolves to $XDG_CONFIG_HOME/replctl; on macOS
// to ~/Library/Application Support/replctl; and on Windows to %AppData%/replctl.
// Falls back to HOME when UserConfigDir is unavailable.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(base) == "" {
		if home, herr := os.UserHomeDir(); herr == nil {
			base = home
		} else {
			return "", errors.New("cannot determine config directory")
		}
	}
	return filepath.Join(base, "replctl"), nil
}

// Path returns the location of config.yaml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ReloadListPath returns the location of the persisted reload file list.
func ReloadListPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "reload.json"), nil
}
