package code

import (
	"fmt"
	"os"
	"strings"
)

// FileContent returns the content of the file at path.
func FileContent(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FilesContent concatenates the given files, one newline between each.
func FilesContent(paths []string) (string, error) {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		s, err := FileContent(p)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", p, err)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n"), nil
}
