package session

import (
	"strings"

	"replctl/internal/code"
	"replctl/internal/output"
)

// DefaultBatchSize is the number of lines sent to the REPL at once.
const DefaultBatchSize = 100

// BatchPrompt drops blank and comment lines from prompt and packs the
// remaining statements into batches of at most size lines. A statement
// longer than size is sent alone; statements are never cut.
func BatchPrompt(prompt string, size int) []string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var lines []string
	for _, ln := range strings.Split(prompt, "\n") {
		t := strings.TrimSpace(ln)
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "//") && !strings.Contains(t, output.EndOfInclude) {
			continue
		}
		lines = append(lines, ln)
	}

	var (
		batches []string
		cur     []string
	)
	for _, b := range code.Extract(lines) {
		if len(cur) > 0 && len(cur)+b.Len() > size {
			batches = append(batches, strings.Join(cur, "\n"))
			cur = nil
		}
		cur = append(cur, b.Lines...)
	}
	if len(cur) > 0 {
		batches = append(batches, strings.Join(cur, "\n"))
	}
	return batches
}
