package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"replctl/internal/output"
	"replctl/internal/profiler"
	"replctl/internal/tools"
	"replctl/internal/ui"
)

var (
	colorPrimary = ui.Vitesse.Primary
	colorYellow  = ui.Vitesse.Yellow
	colorRed     = ui.Vitesse.Red
	colorMuted   = ui.Vitesse.Secondary

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	okStyle     = lipgloss.NewStyle().Foreground(colorPrimary)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	errStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// maxContents caps the source column of profile reports.
const maxContents = 60

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(ui.BorderStyle()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func varsTable(bindings []output.Binding) string {
	t := newTable("Name", "Type", "Value")
	for _, b := range bindings {
		t.Row(b.Name, b.Type, b.Value)
	}
	return t.Render()
}

// profileTable renders a report in the column layout of the REPL printout.
func profileTable(r profiler.Report) string {
	t := newTable("Line #", "Hits", "Time", "Per Hit", "% Time", "Line Contents").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			s := cellStyle
			if col < 5 {
				s = s.Align(lipgloss.Right)
			}
			if col == 4 && row >= 0 && row < len(r.Lines) && r.Lines[row].Percent >= 20 {
				s = s.Foreground(colorYellow)
			}
			return s
		})
	for _, l := range r.Lines {
		t.Row(
			fmt.Sprint(l.Line),
			fmt.Sprint(l.Hits),
			seconds(l.Time),
			seconds(l.PerHit),
			fmt.Sprintf("%.1f", l.Percent),
			truncate(l.Contents, maxContents),
		)
	}
	head := fmt.Sprintf("Total time: %s s\nFunction: %s at line %d\n", seconds(r.Total), r.Function, r.Line)
	return mutedStyle.Render(head) + "\n" + t.Render()
}

func toolsTable(results []tools.CheckResult) string {
	t := newTable("Tool", "Status", "Version", "Path")
	for _, r := range results {
		status := okStyle.Render("ok")
		switch {
		case !r.Installed && r.Tool.Required:
			status = errStyle.Render("missing")
		case !r.Installed:
			status = warnStyle.Render("missing")
		case r.Outdated:
			status = warnStyle.Render("outdated")
		}
		t.Row(r.Tool.DisplayName, status, r.Version, r.Path)
	}
	return t.Render()
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.6f", d.Seconds())
}

// truncate expands tabs and shortens s to w terminal cells.
func truncate(s string, w int) string {
	s = strings.ReplaceAll(s, "\t", "    ")
	if runewidth.StringWidth(s) <= w {
		return s
	}
	return runewidth.Truncate(s, w, "…")
}
