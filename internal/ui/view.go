package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
)

const inputLines = 3

func varZone(i int) string { return fmt.Sprintf("var.%d", i) }

// varsWidth is the width of the variables panel, 0 when hidden.
func (m model) varsWidth() int {
	if !m.showVars || m.width < 80 {
		return 0
	}
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	if w > 44 {
		w = 44
	}
	return w
}

func (m model) bodyHeight() int {
	h := m.height - 1 - (inputLines + 2) - 1
	if h < 3 {
		h = 3
	}
	return h
}

// layout sizes the widgets after a resize or panel toggle.
func (m *model) layout() {
	if m.width == 0 {
		return
	}
	m.input.SetWidth(m.width - 2)
	m.input.SetHeight(inputLines)
	m.out.Width = m.width - m.varsWidth()
	m.out.Height = m.bodyHeight()
	m.refreshOutput()
}

// refreshOutput rebuilds the transcript and scrolls to the end.
func (m *model) refreshOutput() {
	w := m.out.Width
	if w < 10 {
		w = 10
	}
	echo := MutedStyle()
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		for j, ln := range strings.Split(strings.TrimRight(e.code, "\n"), "\n") {
			prefix := "  "
			if j == 0 {
				prefix = "› "
			}
			b.WriteString(echo.Render(prefix+ln) + "\n")
		}
		body := e.body
		if e.isErr {
			if e.note != "" {
				b.WriteString(ErrorStyle().Render(e.note) + "\n")
			}
			if body != "" {
				b.WriteString(ErrorStyle().Faint(true).Render(body) + "\n")
			}
			continue
		}
		if body != "" {
			b.WriteString(body + "\n")
		}
		if e.note != "" {
			b.WriteString(echo.Faint(true).Render(e.note) + "\n")
		}
	}
	m.out.SetContent(lipgloss.NewStyle().Width(w).Render(b.String()))
	m.out.GotoBottom()
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "starting…"
	}

	status := AccentBold().Render("ready")
	if m.running {
		status = m.spin.View() + " running"
	}
	header := AccentBold().Render("replctl") + "  " + status
	header = lipgloss.NewStyle().Width(m.width).Render(header)

	out := m.out
	var palette string
	if m.slashVisible {
		palette = renderSlashPalette(m.width, m.slashFiltered, m.slashSel)
		if h := lipgloss.Height(palette); out.Height > h+1 {
			out.Height -= h
		}
	}
	body := out.View()
	if vw := m.varsWidth(); vw > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(m.out.Width).Render(body), m.renderVars(vw, m.bodyHeight()))
	}
	if palette != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, palette)
	}

	input := zone.Mark("input", PanelStyle(m.input.Focused()).Width(m.width-2).Render(m.input.View()))

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, header, body, input, m.renderStatus()))
}

// renderVars draws the recorded variables, one clickable row each.
func (m model) renderVars(width, height int) string {
	inner := width - 2
	rows := []string{AccentBold().Render("Variables")}
	if len(m.vars) == 0 {
		rows = append(rows, MutedStyle().Render("none yet"))
	}
	for i, v := range m.vars {
		if len(rows) >= height-2 {
			rows = append(rows, MutedStyle().Render(fmt.Sprintf("… %d more", len(m.vars)-i)))
			break
		}
		val := strings.SplitN(v.Value, "\n", 2)[0]
		line := lipgloss.NewStyle().Foreground(Vitesse.Cyan).Render(v.Name) +
			MutedStyle().Render(": "+v.Type) + " = " + val
		if xansi.StringWidth(line) > inner {
			line = xansi.Truncate(line, inner, "…")
		}
		rows = append(rows, zone.Mark(varZone(i), line))
	}
	return PanelStyle(false).Width(inner).Height(height - 2).Render(strings.Join(rows, "\n"))
}

func (m model) renderStatus() string {
	right := fmt.Sprintf("autoreload %s · %d reload files · %d vars", onOff(m.autoreload), len(m.sess.ReloadFiles()), len(m.vars))
	left := m.notice
	if left == "" {
		left = m.help.ShortHelpView(keys.ShortHelp())
	}
	gap := m.width - xansi.StringWidth(left) - xansi.StringWidth(right) - 2
	if gap < 1 {
		left = xansi.Truncate(left, max(0, m.width-xansi.StringWidth(right)-3), "…")
		gap = 1
	}
	return StatusBarStyle().Width(m.width).Render(" " + left + strings.Repeat(" ", gap) + right)
}
