// Package app starts the interactive terminal front end.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"replctl/internal/ui"
)

// Start runs the TUI on s until the user quits or ctx is done.
func Start(ctx context.Context, s ui.Session, autoreload bool) error {
	// Initialize global bubblezone manager for mouse-aware zones.
	zone.NewGlobal()
	p := tea.NewProgram(ui.New(ctx, s, autoreload), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
