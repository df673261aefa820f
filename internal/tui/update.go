package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zpdzap/replicant/internal/replicate"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 6 // account for "  > /" prefix
		return m, nil

	case statusTickMsg:
		m.refreshReport()
		return m, tickCmd()

	case replicateDoneMsg:
		m.busy = false
		m.refreshReport()
		if msg.err != nil {
			m.message = fmt.Sprintf("Replication failed: %v", msg.err)
			m.isError = true
			return m, nil
		}
		switch msg.res.Outcome {
		case replicate.OutcomeBlocked:
			m.message = "Kill-switch present; replication blocked."
			m.isError = false
		case replicate.OutcomeLimitReached:
			m.message = fmt.Sprintf("Limit reached (%d); no action taken.", m.manager.Config().Limit)
			m.isError = false
		case replicate.OutcomeReplicated:
			skipped := 0
			for _, h := range msg.res.Hosts {
				if h.Err != nil {
					skipped++
				}
			}
			m.message = fmt.Sprintf("Replicated replica-%d", msg.res.Index)
			if len(msg.res.Hosts) > 0 {
				m.message += fmt.Sprintf(", spread to %d hosts", len(msg.res.Hosts)-skipped)
				if skipped > 0 {
					m.message += fmt.Sprintf(" (%d skipped)", skipped)
				}
			}
			m.isError = false
		}
		return m, nil

	case cleanupDoneMsg:
		m.busy = false
		m.cursor = 0
		m.refreshReport()
		if msg.err != nil {
			m.message = fmt.Sprintf("Cleanup failed: %v", msg.err)
			m.isError = true
		} else {
			m.message = "Cleanup done. Kill-switch restored."
			m.isError = false
		}
		return m, nil

	case initDoneMsg:
		m.busy = false
		m.refreshReport()
		if msg.err != nil {
			m.message = fmt.Sprintf("Init failed: %v", msg.err)
			m.isError = true
		} else {
			m.message = "Sandbox ready. Kill-switch present."
			m.isError = false
		}
		return m, nil

	case confirmCleanupExpiredMsg:
		m.confirmCleanup = false
		return m, nil

	case tea.KeyMsg:
		if m.commanding {
			return m.handleCommandMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	// Forward to input if in command mode
	if m.commanding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleNormalMode handles keys on the dashboard.
func (m model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Dismiss help modal
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
			return m, nil
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// If confirming cleanup, second c confirms, anything else cancels
	if m.confirmCleanup {
		m.confirmCleanup = false
		if msg.String() == "c" {
			return m.startCleanup()
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "/":
		m.commanding = true
		m.input.Focus()
		m.input.SetValue("")
		return m, textinput.Blink

	case "r":
		return m.startReplicate()

	case "c":
		if m.busy {
			return m, nil
		}
		m.confirmCleanup = true
		return m, tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
			return confirmCleanupExpiredMsg{}
		})

	case "i":
		return m.startInit()

	case "a":
		return m.doArm()

	case "x":
		return m.doDisarm()

	case "m":
		m.opts.Mutate = !m.opts.Mutate
		return m, nil

	case "s":
		m.opts.Spread = !m.opts.Spread
		return m, nil

	case "p":
		m.opts.Payload = !m.opts.Payload
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.report != nil && m.cursor < len(m.report.Replicas)-1 {
			m.cursor++
		}
		return m, nil
	}

	return m, nil
}

// handleCommandMode handles keys while the command bar is active.
func (m model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.commanding = false
		m.input.Blur()
		m.input.SetValue("")
		return m, nil

	case "enter":
		m.commanding = false
		m.input.Blur()
		return m.processInput()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) processInput() (tea.Model, tea.Cmd) {
	input := m.input.Value()
	m.input.SetValue("")

	cmd := ParseCommand(input)
	if cmd == nil {
		m.message = fmt.Sprintf("Unknown command: %s", input)
		m.isError = true
		return m, nil
	}

	switch cmd.Name {
	case "replicate":
		opts := m.opts
		for _, arg := range cmd.Args {
			switch arg {
			case "--mutate":
				opts.Mutate = true
			case "--spread":
				opts.Spread = true
			case "--payload":
				opts.Payload = true
			default:
				m.message = fmt.Sprintf("Unknown flag: %s", arg)
				m.isError = true
				return m, nil
			}
		}
		m.opts = opts
		return m.startReplicate()

	case "init":
		return m.startInit()

	case "cleanup":
		return m.startCleanup()

	case "arm":
		return m.doArm()

	case "disarm":
		return m.doDisarm()

	case "status":
		m.refreshReport()
		m.message = "Report refreshed from disk."
		m.isError = false
		return m, nil

	case "quit":
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m model) doArm() (tea.Model, tea.Cmd) {
	if err := m.manager.Arm(); err != nil {
		m.message = fmt.Sprintf("Arm failed: %v", err)
		m.isError = true
	} else {
		m.message = "Kill-switch armed."
		m.isError = false
	}
	m.refreshReport()
	return m, nil
}

func (m model) doDisarm() (tea.Model, tea.Cmd) {
	if err := m.manager.Disarm(); err != nil {
		m.message = fmt.Sprintf("Disarm failed: %v", err)
		m.isError = true
	} else {
		m.message = "Kill-switch disarmed. Replication permitted up to the limit."
		m.isError = false
	}
	m.refreshReport()
	return m, nil
}

func (m model) startReplicate() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.message = "Replicating..."
	m.isError = false

	eng, opts := m.engine, m.opts
	return m, func() tea.Msg {
		res, err := eng.ReplicateOnce(opts)
		return replicateDoneMsg{res: res, err: err}
	}
}

func (m model) startCleanup() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.message = "Cleaning up..."
	m.isError = false

	mgr := m.manager
	return m, func() tea.Msg {
		return cleanupDoneMsg{err: mgr.Cleanup()}
	}
}

func (m model) startInit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.message = "Initializing sandbox..."
	m.isError = false

	mgr := m.manager
	return m, func() tea.Msg {
		return initDoneMsg{err: mgr.Init()}
	}
}
