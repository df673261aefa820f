package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zpdzap/replicant/internal/replicate"
	"github.com/zpdzap/replicant/internal/sandbox"
	"github.com/zpdzap/replicant/internal/status"
	"golang.org/x/term"
)

// model is the Bubble Tea model for the replicant dashboard.
type model struct {
	manager *sandbox.Manager
	engine  *replicate.Engine

	// Latest from-disk report; refreshed every tick, never cached beyond it.
	report    *status.Report
	reportErr error

	opts replicate.Options // mutate/spread/payload toggles for the next run

	input      textinput.Model
	cursor     int // selected replica in the list
	message    string
	isError    bool
	commanding bool // true when the command bar is active (/ pressed)
	busy       bool // a replicate/cleanup/init command is running
	quitting   bool
	width      int
	height     int

	// Help modal
	showHelp bool

	// Double-press cleanup confirmation
	confirmCleanup bool
}

func newModel(mgr *sandbox.Manager, eng *replicate.Engine) model {
	ti := textinput.New()
	ti.Placeholder = "replicate, init, cleanup, arm, disarm, quit"
	ti.CharLimit = 256
	ti.Width = 80
	// Input starts unfocused — activated by pressing /
	ti.Blur()

	// Get initial terminal size so the first render isn't at width=0
	w, h, _ := term.GetSize(int(os.Stdout.Fd()))
	if w == 0 {
		w = 80
	}
	if h == 0 {
		h = 24
	}

	m := model{
		manager: mgr,
		engine:  eng,
		input:   ti,
		width:   w,
		height:  h,
	}
	m.refreshReport()
	return m
}

// refreshReport recomputes the report from disk.
func (m *model) refreshReport() {
	m.report, m.reportErr = status.Collect(m.manager.Paths(), m.manager.Config().Limit)
	if m.report != nil && m.cursor >= len(m.report.Replicas) && m.cursor > 0 {
		m.cursor = len(m.report.Replicas) - 1
		if m.cursor < 0 {
			m.cursor = 0
		}
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}
