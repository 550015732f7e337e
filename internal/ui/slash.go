package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/sahilm/fuzzy"
)

type SlashCmd struct {
	Name    string
	Aliases []string
	Args    string
	Desc    string
}

var slashCmds = []SlashCmd{
	{Name: "/vars", Desc: "Show or hide the variables panel"},
	{Name: "/get", Args: "NAME", Desc: "Print a variable as JSON"},
	{Name: "/reload", Args: "FILE|clear", Desc: "Add a reload file, or clear them"},
	{Name: "/autoreload", Desc: "Toggle prepending reload files"},
	{Name: "/clear", Aliases: []string{"/cls"}, Desc: "Clear the output"},
	{Name: "/help", Aliases: []string{"/?"}, Desc: "Show key bindings"},
	{Name: "/quit", Aliases: []string{"/exit", "/q"}, Desc: "Exit"},
}

// slashNames lists names and aliases; slashIndex maps them back.
var slashNames, slashIndex = func() ([]string, []int) {
	var names []string
	var idx []int
	for i, c := range slashCmds {
		names = append(names, c.Name)
		idx = append(idx, i)
		for _, a := range c.Aliases {
			names = append(names, a)
			idx = append(idx, i)
		}
	}
	return names, idx
}()

// filterSlashCommands fuzzy-matches the first token of the input.
func filterSlashCommands(token string) []SlashCmd {
	if token == "/" || token == "" {
		return slashCmds
	}
	seen := map[int]bool{}
	var out []SlashCmd
	for _, m := range fuzzy.Find(token, slashNames) {
		i := slashIndex[m.Index]
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, slashCmds[i])
	}
	return out
}

func lookupSlash(name string) (SlashCmd, bool) {
	for _, c := range slashCmds {
		if c.Name == name {
			return c, true
		}
		for _, a := range c.Aliases {
			if a == name {
				return c, true
			}
		}
	}
	return SlashCmd{}, false
}

func (m *model) refreshSlash() {
	v := m.input.Value()
	if !strings.HasPrefix(v, "/") || strings.Contains(v, "\n") {
		m.slashVisible = false
		m.slashFiltered = nil
		m.slashSel = 0
		return
	}
	m.slashVisible = true
	token := strings.TrimSpace(v)
	if sp := strings.IndexAny(token, " \t"); sp >= 0 {
		token = token[:sp]
	}
	m.slashFiltered = filterSlashCommands(token)
	if m.slashSel >= len(m.slashFiltered) {
		m.slashSel = 0
	}
}

// renderSlashPalette draws the filtered commands in a bordered box.
func renderSlashPalette(width int, cmds []SlashCmd, sel int) string {
	inner := width - 2
	if inner < 20 {
		inner = 20
	}
	nameWidth := 14
	hl := AccentBold().Render
	dim := MutedStyle().Render

	var lines []string
	if len(cmds) == 0 {
		lines = append(lines, dim("  no matches"))
	}
	for i, c := range cmds {
		marker := "  "
		name := fmt.Sprintf("%-*s", nameWidth, c.Name)
		if i == sel {
			marker = hl("› ")
			name = hl(name)
		}
		desc := c.Desc
		if c.Args != "" {
			desc = c.Args + "  " + desc
		}
		line := marker + name + dim(desc)
		if xansi.StringWidth(line) > inner {
			line = xansi.Truncate(line, inner, "…")
		}
		lines = append(lines, line)
	}
	return PanelStyle(true).Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
