package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// WithEnv sets env var to val for the duration of the test scope.
// Returns a cleanup func to restore previous value.
func WithEnv(t *testing.T, key, val string) func() {
	t.Helper()
	old, had := os.LookupEnv(key)
	if val == "" {
		_ = os.Unsetenv(key)
	} else {
		_ = os.Setenv(key, val)
	}
	return func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	}
}

// ConfigDir points the user config base at a fresh temp dir until the test
// ends and returns the replctl directory inside it.
func ConfigDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Cleanup(WithEnv(t, "XDG_CONFIG_HOME", tmp))
	base := tmp
	switch runtime.GOOS {
	case "darwin":
		t.Cleanup(WithEnv(t, "HOME", tmp))
		base = filepath.Join(tmp, "Library", "Application Support")
	case "windows":
		t.Cleanup(WithEnv(t, "AppData", tmp))
	}
	return filepath.Join(base, "replctl")
}
