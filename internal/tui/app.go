// Package tui is the live dashboard over a replication sandbox. It is purely
// a presentation layer: every value it shows comes from a fresh from-disk
// status report, and every action goes through the same manager and engine
// the CLI commands use.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zpdzap/replicant/internal/replicate"
	"github.com/zpdzap/replicant/internal/sandbox"
)

// Run starts the dashboard and blocks until the user quits.
func Run(mgr *sandbox.Manager, eng *replicate.Engine) error {
	m := newModel(mgr, eng)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
