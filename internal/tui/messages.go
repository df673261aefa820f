package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zpdzap/replicant/internal/replicate"
)

// replicateDoneMsg is sent when a replication step finishes.
type replicateDoneMsg struct {
	res *replicate.Result
	err error
}

// cleanupDoneMsg is sent when a cleanup finishes.
type cleanupDoneMsg struct {
	err error
}

// initDoneMsg is sent when sandbox initialization finishes.
type initDoneMsg struct {
	err error
}

// statusTickMsg triggers a fresh from-disk report.
type statusTickMsg time.Time

// confirmCleanupExpiredMsg cancels a pending cleanup confirmation.
type confirmCleanupExpiredMsg struct{}

// tickCmd returns a command that sends a tick every 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}
