package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"replctl/internal/code"
	"replctl/internal/session"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case runDoneMsg:
		m.running = false
		e := entry{code: msg.code, note: fmt.Sprintf("%.2fs", msg.took.Seconds())}
		var re *session.ReplError
		switch {
		case errors.As(msg.err, &re):
			e.isErr = true
			e.body = re.Output
			e.note = re.Line
		case msg.err != nil:
			e.isErr = true
			e.body = msg.err.Error()
		default:
			e.body = msg.res.Rendered
		}
		m.entries = append(m.entries, e)
		m.vars = m.sess.Variables().All()
		m.refreshOutput()
		if errors.Is(msg.err, session.ErrCrashed) || errors.Is(msg.err, session.ErrClosed) {
			m.notice = "the REPL is gone; restart replctl tui"
		}
		return m, nil
	case varJSONMsg:
		m.running = false
		e := entry{code: "/get " + msg.name, body: msg.text}
		if msg.err != nil {
			e.isErr = true
			e.body = msg.err.Error()
		}
		m.entries = append(m.entries, e)
		m.refreshOutput()
		return m, nil
	case helpMsg:
		m.entries = append(m.entries, entry{code: "/help", body: strings.TrimRight(string(msg), "\n")})
		m.refreshOutput()
		return m, nil
	case noticeMsg:
		m.notice = string(msg)
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
		for i, b := range m.vars {
			if zone.Get(varZone(i)).InBounds(msg) {
				m.input.InsertString(b.Name)
				m.input.Focus()
				return m, nil
			}
		}
		if zone.Get("input").InBounds(msg) {
			m.input.Focus()
			return m, nil
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.out, cmd = m.out.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Clear):
		m.input.Reset()
		m.refreshSlash()
		return m, nil
	case key.Matches(msg, keys.Scroll):
		var cmd tea.Cmd
		m.out, cmd = m.out.Update(msg)
		return m, cmd
	case key.Matches(msg, keys.Newline):
		m.input.InsertString("\n")
		m.refreshSlash()
		return m, nil
	case key.Matches(msg, keys.Prev):
		m.recall(-1)
		return m, nil
	case key.Matches(msg, keys.Next):
		m.recall(1)
		return m, nil
	}

	if m.slashVisible {
		switch msg.String() {
		case "up":
			if n := len(m.slashFiltered); n > 0 {
				m.slashSel = (m.slashSel - 1 + n) % n
			}
			return m, nil
		case "down":
			if n := len(m.slashFiltered); n > 0 {
				m.slashSel = (m.slashSel + 1) % n
			}
			return m, nil
		}
		if key.Matches(msg, keys.Complete) {
			if len(m.slashFiltered) > 0 {
				m.input.SetValue(m.completeSlash())
				m.refreshSlash()
			}
			return m, nil
		}
	}

	if key.Matches(msg, keys.Run) {
		return m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshSlash()
	return m, cmd
}

// completeSlash replaces the first token with the selected command.
func (m model) completeSlash() string {
	sel := m.slashFiltered[m.slashSel].Name
	v := m.input.Value()
	if sp := strings.IndexAny(v, " \t"); sp >= 0 {
		return sel + v[sp:]
	}
	return sel + " "
}

func (m model) submit() (tea.Model, tea.Cmd) {
	val := m.input.Value()
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return m, nil
	}
	if m.slashVisible {
		f := strings.Fields(trimmed)
		if _, ok := lookupSlash(f[0]); !ok && len(m.slashFiltered) > 0 {
			f = strings.Fields(m.completeSlash())
		}
		m.input.Reset()
		m.refreshSlash()
		return m.execSlash(f[0], f[1:])
	}
	if !balanced(val) {
		m.input.InsertString("\n")
		return m, nil
	}
	if m.running {
		m.notice = "still running the previous snippet"
		return m, nil
	}
	m.running = true
	m.history = append(m.history, val)
	m.histPos = len(m.history)
	m.input.Reset()
	return m, tea.Batch(runSnippetCmd(m.ctx, m.sess, val, m.autoreload), m.spin.Tick)
}

func (m model) execSlash(name string, args []string) (tea.Model, tea.Cmd) {
	c, ok := lookupSlash(name)
	if !ok {
		m.notice = fmt.Sprintf("unknown command %s", name)
		return m, nil
	}
	switch c.Name {
	case "/vars":
		m.showVars = !m.showVars
		m.layout()
	case "/get":
		if len(args) != 1 {
			m.notice = "usage: /get NAME"
			return m, nil
		}
		if m.running {
			m.notice = "still running the previous snippet"
			return m, nil
		}
		m.running = true
		return m, tea.Batch(getVarCmd(m.ctx, m.sess, args[0]), m.spin.Tick)
	case "/reload":
		switch {
		case len(args) != 1:
			m.notice = "usage: /reload FILE | /reload clear"
		case args[0] == "clear":
			m.sess.ClearReloadFiles()
			m.notice = "reload files cleared"
		default:
			if err := m.sess.AddReloadFile(args[0]); err != nil {
				m.notice = err.Error()
				return m, nil
			}
			m.autoreload = true
			m.notice = fmt.Sprintf("%d reload files", len(m.sess.ReloadFiles()))
		}
	case "/autoreload":
		m.autoreload = !m.autoreload
		m.notice = fmt.Sprintf("autoreload %s", onOff(m.autoreload))
	case "/clear":
		m.entries = nil
		m.refreshOutput()
	case "/help":
		return m, helpCmd(m.out.Width - 2)
	case "/quit":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// recall walks the snippet history.
func (m *model) recall(step int) {
	if len(m.history) == 0 {
		return
	}
	m.histPos += step
	if m.histPos < 0 {
		m.histPos = 0
	}
	if m.histPos >= len(m.history) {
		m.histPos = len(m.history)
		m.input.Reset()
		return
	}
	m.input.SetValue(m.history[m.histPos])
}

// balanced reports whether no bracket is left open.
func balanced(src string) bool {
	var b code.Balance
	for _, ln := range strings.Split(src, "\n") {
		b = b.Add(code.LineDelta(ln))
	}
	return b.Paren <= 0 && b.Brace <= 0 && b.Bracket <= 0
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
