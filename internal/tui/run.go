package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the browser and blocks until the user quits or ctx is done.
// Extra program options are appended after the defaults (alt screen and
// ctx).
func Run(ctx context.Context, opts Options, progOpts ...tea.ProgramOption) error {
	m := New(opts)
	defer m.Close()

	all := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, progOpts...)
	p := tea.NewProgram(m, all...)
	m.Attach(p.Send)

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
