package ui

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"replctl/internal/session"
)

// Session is what the TUI needs from a REPL session.
type Session interface {
	Run(ctx context.Context, prompt string, ro session.RunOptions) (*session.Result, error)
	Variables() *session.Variables
	AddReloadFile(path string) error
	ClearReloadFiles()
	ReloadFiles() []string
}

func runSnippetCmd(ctx context.Context, s Session, code string, autoreload bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res, err := s.Run(ctx, code, session.RunOptions{Autoreload: autoreload})
		return runDoneMsg{code: code, res: res, err: err, took: time.Since(start)}
	}
}

func getVarCmd(ctx context.Context, s Session, name string) tea.Cmd {
	return func() tea.Msg {
		var v any
		if err := s.Variables().Get(ctx, name, &v); err != nil {
			return varJSONMsg{name: name, err: err}
		}
		b, err := json.MarshalIndent(v, "", "  ")
		return varJSONMsg{name: name, text: string(b), err: err}
	}
}

const helpMarkdown = `# replctl

Type Swift and press **Enter**. Input continues on a new line while brackets
are open; **Alt+Enter** always inserts a newline.

| Key | Action |
|---|---|
| Enter | run the snippet |
| Ctrl+P / Ctrl+N | previous / next snippet |
| PgUp / PgDn | scroll output |
| / | slash commands, Tab completes |
| Ctrl+C | quit |

Click a variable to insert its name.
`

func helpCmd(width int) tea.Cmd {
	return func() tea.Msg {
		if width < 20 {
			width = 20
		}
		r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(width))
		if err != nil {
			return helpMsg(helpMarkdown)
		}
		out, err := r.Render(helpMarkdown)
		if err != nil {
			return helpMsg(helpMarkdown)
		}
		return helpMsg(out)
	}
}
