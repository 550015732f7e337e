package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"replctl/internal/output"
)

// entry is one item of the output transcript.
type entry struct {
	code  string
	body  string
	isErr bool
	note  string
}

// Model for TUI
type model struct {
	ctx  context.Context
	sess Session

	input textarea.Model
	out   viewport.Model
	spin  spinner.Model
	help  help.Model

	entries    []entry
	running    bool
	autoreload bool

	showVars bool
	vars     []output.Binding

	// slash commands UI state
	slashVisible  bool
	slashFiltered []SlashCmd
	slashSel      int

	history []string
	histPos int

	notice   string
	width    int
	height   int
	quitting bool
}

func newModel(ctx context.Context, s Session, autoreload bool) model {
	ta := textarea.New()
	ta.Placeholder = "let x = 1   (Enter runs, / for commands)"
	ta.ShowLineNumbers = false
	ta.Prompt = "› "
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(Vitesse.Primary)))

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	h := help.New()
	h.Styles.ShortKey = AccentBold()
	h.Styles.ShortDesc = MutedStyle()
	h.Styles.ShortSeparator = MutedStyle()

	return model{
		ctx:        ctx,
		sess:       s,
		input:      ta,
		out:        vp,
		spin:       sp,
		help:       h,
		autoreload: autoreload,
		showVars:   true,
		vars:       s.Variables().All(),
	}
}

// New returns the root model for a session.
func New(ctx context.Context, s Session, autoreload bool) tea.Model {
	return newModel(ctx, s, autoreload)
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}
