// Package output interprets cleaned REPL output: error markers, variable
// bindings and the echoed input lines.
package output

import (
	"regexp"
	"strings"

	"replctl/internal/code"
)

// EndOfInclude separates injected reload sources from the submitted
// statements in a prompt, and therefore in the echoed output.
const EndOfInclude = "// -- END OF AUTO REPL INCLUDE --"

var (
	errorRe  = regexp.MustCompile(`(\$E\d+):|^error:`)
	promptRe = regexp.MustCompile(`^\d+[>.]`)
	readyRe  = regexp.MustCompile(`\d+>$`)
	slotRe   = regexp.MustCompile(`^\$R\d+$`)
	// name: Type<A, B> = value
	bindingRe = regexp.MustCompile(`^(\w+|\$R\d+):\s*([^\s=,:]+(?:\s*[,:]\s*[^\s=,:]+)*)\s*=\s*(.*)$`)
)

// Binding is a variable reported by the REPL after a statement ran.
type Binding struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SearchForError returns the first line that carries a REPL error marker.
func SearchForError(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if errorRe.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

// IsResultSlot reports whether name is an anonymous result such as $R3.
func IsResultSlot(name string) bool {
	return slotRe.MatchString(name)
}

// FindVariables extracts `name: Type = value` bindings. Values that open a
// brace continue until the braces balance again. Lines that do not look like
// a binding are skipped. A later binding for the same name wins.
func FindVariables(text string) map[string]Binding {
	vars := map[string]Binding{}
	var (
		cur   *Binding
		value []string
		depth int
	)
	for _, line := range strings.Split(text, "\n") {
		if cur != nil {
			value = append(value, line)
			depth += code.LineDelta(line).Brace
			if depth <= 0 {
				cur.Value = strings.Join(value, "\n")
				vars[cur.Name] = *cur
				cur, value = nil, nil
			}
			continue
		}
		m := bindingRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		b := Binding{Name: m[1], Type: m[2], Value: strings.TrimSpace(m[3])}
		if depth = code.LineDelta(b.Value).Brace; depth > 0 {
			cur, value = &b, []string{b.Value}
			continue
		}
		vars[b.Name] = b
	}
	// truncated output: keep what was collected
	if cur != nil {
		cur.Value = strings.Join(value, "\n")
		vars[cur.Name] = *cur
	}
	return vars
}

// IsPromptInputLine reports whether line is an echoed input line, e.g.
// " 64. let x = 1" or " 65>".
func IsPromptInputLine(line string) bool {
	return promptRe.MatchString(strings.TrimSpace(line))
}

// RemovePromptInputLines drops the echoed input at the top of the output:
// everything up to and including the first run of prompt lines. Text without
// prompt lines is returned unchanged.
func RemovePromptInputLines(text string) string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if IsPromptInputLine(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return text
	}
	end := start
	for end < len(lines) && IsPromptInputLine(lines[end]) {
		end++
	}
	return strings.Join(lines[end:], "\n")
}

// SplitByEndOfInclude splits text at the sentinel line. Without a sentinel
// the whole text is returned as rest.
func SplitByEndOfInclude(text string) (include, rest string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, EndOfInclude) {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return "", text
}

// PromptReady reports whether the REPL is showing its input prompt again.
func PromptReady(text string) bool {
	return readyRe.MatchString(strings.TrimSpace(text))
}
