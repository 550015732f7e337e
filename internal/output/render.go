package output

import (
	"fmt"
	"regexp"
	"strings"

	"replctl/internal/code"
)

// RenderOptions controls what part of the cleaned output is shown.
type RenderOptions struct {
	HideInputs    bool   `yaml:"hide_inputs" json:"hide_inputs"`
	HideVariables bool   `yaml:"hide_variables" json:"hide_variables"`
	StopPattern   string `yaml:"stop_pattern,omitempty" json:"stop_pattern,omitempty"`
}

// Render returns the user-facing part of cleaned output: the reload echo is
// dropped, then inputs and variable dumps are hidden as requested, and the
// text is cut before the first line matching StopPattern.
func Render(text string, o RenderOptions) (string, error) {
	var stop *regexp.Regexp
	if o.StopPattern != "" {
		re, err := regexp.Compile(o.StopPattern)
		if err != nil {
			return "", fmt.Errorf("stop pattern: %w", err)
		}
		stop = re
	}

	_, out := SplitByEndOfInclude(text)
	if o.HideInputs {
		out = trimReadyPrompt(RemovePromptInputLines(out))
	}
	if o.HideVariables {
		out = removeBindings(out)
	}
	if stop != nil {
		lines := strings.Split(out, "\n")
		for i, line := range lines {
			if stop.MatchString(line) {
				lines = lines[:i]
				break
			}
		}
		out = strings.Join(lines, "\n")
	}
	return out, nil
}

// trimReadyPrompt drops the trailing input prompt, e.g. " 65>".
func trimReadyPrompt(text string) string {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && isReadyLine(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func isReadyLine(line string) bool {
	t := strings.TrimSpace(line)
	return len(t) > 1 && strings.Trim(t, "0123456789") == ">"
}

// removeBindings drops every line that belongs to a variable dump.
func removeBindings(text string) string {
	var (
		kept  []string
		depth int
	)
	for _, line := range strings.Split(text, "\n") {
		if depth > 0 {
			depth += code.LineDelta(line).Brace
			continue
		}
		if m := bindingRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			depth = code.LineDelta(m[3]).Brace
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
