package system

import (
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger for CLI output.
// It prints to stderr with timestamps enabled for better UX.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
})

// SetLevel parses a level name such as "debug" or "warn" and applies it.
func SetLevel(level string) error {
	if strings.TrimSpace(level) == "" {
		return nil
	}
	lv, err := clog.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lv)
	return nil
}
