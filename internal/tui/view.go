package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	if m.quitting {
		return ""
	}

	// Header — always shown
	title := "replicant — sandboxed self-replication demo"
	badge := m.killSwitchBadge()
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(badge) - 4
	if gap < 1 {
		gap = 1
	}
	header := headerStyle.Width(m.width).Render(title + strings.Repeat(" ", gap) + badge)

	if m.reportErr != nil {
		return header + "\n" + errorStyle.Render(fmt.Sprintf("status error: %v", m.reportErr)) + "\n"
	}
	if m.report == nil || !m.report.Initialized {
		return m.renderEmptyState(header)
	}
	return m.renderDashboard(header)
}

func (m model) killSwitchBadge() string {
	if m.report == nil || !m.report.Initialized {
		return emptyStyle.Render("not initialized")
	}
	if m.report.KillSwitch {
		return armedStyle.Render("KILL-SWITCH ARMED")
	}
	return disarmedStyle.Render("KILL-SWITCH OFF")
}

func (m model) renderEmptyState(header string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")
	b.WriteString(emptyStyle.Render("Sandbox not initialized. Press i to create it (kill-switch included)."))
	b.WriteString("\n\n")

	if m.commanding {
		b.WriteString(hotkeysStyle.Render("[enter] execute  [esc] cancel"))
	} else {
		b.WriteString(hotkeysStyle.Render("[i]nit  [?] help  [q] quit"))
	}
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	m.renderStatusAndInput(&b)

	if m.showHelp {
		return m.renderHelpOverlay(b.String())
	}
	return b.String()
}

func (m model) renderDashboard(header string) string {
	var b strings.Builder
	r := m.report

	b.WriteString(header)
	b.WriteString("\n")

	// Summary block
	b.WriteString(labelStyle.Render("sandbox") + "  " + valueStyle.Render(r.Sandbox))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("replicas") + " " +
		valueStyle.Render(fmt.Sprintf("%d / %d", len(r.Replicas), r.Limit)) +
		"    " + m.renderToggles())
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	// Replica list
	if len(r.Replicas) == 0 {
		b.WriteString(emptyStyle.Render("No replicas yet. Disarm the kill-switch (x), then press r."))
		b.WriteString("\n")
	} else {
		for i, rep := range r.Replicas {
			cursor := "  "
			nStyle := nameStyle
			if i == m.cursor {
				cursor = "▸ "
				nStyle = selectedNameStyle
			}
			short := rep.SHA256
			if len(short) > 16 {
				short = short[:16]
			}
			b.WriteString(fmt.Sprintf("  %s%s  %s", cursor, nStyle.Render(rep.Name),
				sumStyle.Render("sha256:"+short+"…")))
			b.WriteString("\n")
		}
	}

	// Hosts summary
	if len(r.Hosts) > 0 {
		b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)))
		b.WriteString("\n")
		var parts []string
		for _, h := range r.Hosts {
			parts = append(parts, fmt.Sprintf("%s: %d", h.Name, h.Count))
		}
		b.WriteString(labelStyle.Render("hosts") + "    " + hostStyle.Render(strings.Join(parts, "   ")))
		b.WriteString("\n")
	}

	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	// Hotkeys
	if m.commanding {
		b.WriteString(hotkeysStyle.Render("[enter] execute  [esc] cancel"))
	} else if m.confirmCleanup {
		b.WriteString(confirmStyle.Render("Cleanup removes all replicas and restores the kill-switch. Press c again to confirm."))
	} else {
		b.WriteString(hotkeysStyle.Render("[r]eplicate  [c]leanup  [a]rm  [x] disarm  [m/s/p] toggles  [?] help  [q] quit"))
	}
	b.WriteString("\n")

	m.renderStatusAndInput(&b)

	if m.showHelp {
		return m.renderHelpOverlay(b.String())
	}
	return b.String()
}

func (m model) renderToggles() string {
	toggle := func(label string, on bool) string {
		if on {
			return toggleOnStyle.Render("[" + label + " on]")
		}
		return toggleOffStyle.Render("[" + label + " off]")
	}
	return toggle("mutate", m.opts.Mutate) + " " +
		toggle("spread", m.opts.Spread) + " " +
		toggle("payload", m.opts.Payload)
}

func (m model) renderStatusAndInput(b *strings.Builder) {
	if m.message != "" {
		if m.isError {
			b.WriteString(errorStyle.Render(m.message))
		} else {
			b.WriteString(messageStyle.Render(m.message))
		}
		b.WriteString("\n")
	}
	if m.commanding {
		b.WriteString("  ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
}

func (m model) renderHelpOverlay(base string) string {
	help := strings.Join([]string{
		helpHeaderStyle.Render("Safety rails"),
		helpKeyStyle.Render("  a") + helpDescStyle.Render("           Arm the kill-switch (halts replication)"),
		helpKeyStyle.Render("  x") + helpDescStyle.Render("           Disarm the kill-switch"),
		"",
		helpHeaderStyle.Render("Actions"),
		helpKeyStyle.Render("  i") + helpDescStyle.Render("           Initialize the sandbox"),
		helpKeyStyle.Render("  r") + helpDescStyle.Render("           Replicate once (respects limit + kill-switch)"),
		helpKeyStyle.Render("  c c") + helpDescStyle.Render("         Cleanup (double-press to confirm)"),
		helpKeyStyle.Render("  m s p") + helpDescStyle.Render("       Toggle mutate / spread / payload"),
		"",
		helpHeaderStyle.Render("Commands"),
		helpKeyStyle.Render("  /") + helpDescStyle.Render("           Open command bar"),
		helpDescStyle.Render("  /replicate [--mutate] [--spread] [--payload]"),
		helpDescStyle.Render("  /init  /cleanup  /arm  /disarm  /status"),
		"",
		helpKeyStyle.Render("  q") + helpDescStyle.Render("  quit") + "     " + helpKeyStyle.Render("?") + helpDescStyle.Render("  close this help"),
	}, "\n")

	modal := helpStyle.Render(help)

	// Center the modal over the base view
	modalWidth := lipgloss.Width(modal)
	modalHeight := lipgloss.Height(modal)

	baseLines := strings.Split(base, "\n")

	xOffset := max(0, (m.width-modalWidth)/2)
	yOffset := max(0, (m.height-modalHeight)/2)

	modalLines := strings.Split(modal, "\n")
	for i, mLine := range modalLines {
		row := yOffset + i
		if row < len(baseLines) {
			padding := strings.Repeat(" ", xOffset)
			baseLines[row] = padding + mLine + strings.Repeat(" ", max(0, m.width-xOffset-lipgloss.Width(mLine)))
		}
	}

	return strings.Join(baseLines, "\n")
}
