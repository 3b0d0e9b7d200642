package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/paulzwoo/arm/internal/connections"
	"github.com/paulzwoo/arm/internal/ui"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSparkline())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader shows the monitored process and resolver state, the
// piece of the display that stays put while connections churn.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("arm monitor")

	target := m.resolver.ProcessName()
	if pid := m.resolver.ProcessPid(); pid != "" {
		target += " (" + pid + ")"
	}

	kind := m.resolver.ActiveKind()
	var kindText string
	if kind == connections.KindNone {
		kindText = AbandonedStyle.Render("abandoned")
	} else {
		kindText = ValueStyle.Render(kind.Label())
	}

	conns := len(m.table.Rows())
	stats := LabelStyle.Render(fmt.Sprintf(" | %s | resolver: ", target)) +
		kindText +
		LabelStyle.Render(fmt.Sprintf(" | rate: %.1fs | %d conns | updated %s",
			m.resolver.Rate().Seconds(), conns, m.updateText()))

	line := title + stats
	if m.resolver.IsPaused() {
		line += PausedStyle.Render("  " + ui.SymbolPaused + " paused")
	}

	return HeaderStyle.Render(line)
}

// renderSparkline shows the recent connection-count trend.
func (m Model) renderSparkline() string {
	width := m.width - 12
	if width < 10 {
		width = 10
	}

	spark := ui.RenderSparkline(m.history.Values(), width, ColorGraph)
	if spark == "" {
		return ""
	}
	return LabelStyle.Render(" history ") + spark
}

// renderBody shows the connection table, or a waiting indicator until
// the first snapshot with data arrives.
func (m Model) renderBody() string {
	if !m.sampled && len(m.table.Rows()) == 0 {
		if m.resolver.ActiveKind() == connections.KindNone {
			return AbandonedStyle.Render("  all connection resolvers failed") +
				LabelStyle.Render("  (install netstat, ss, lsof, or sockstat and restart)")
		}
		return "  " + m.spinner.View() + LabelStyle.Render(" waiting for first connection snapshot...")
	}
	return TableBorderStyle.Render(m.table.View())
}

// renderFooter shows key hints.
func (m Model) renderFooter() string {
	return FooterStyle.Render("q quit · p pause · r refresh · ↑/↓ scroll · ? help")
}

// updateText describes how fresh the current snapshot is.
func (m Model) updateText() string {
	secs := m.SecondsSinceUpdate()
	switch secs {
	case 0:
		return "just now"
	case 1:
		return "1s ago"
	default:
		return fmt.Sprintf("%ds ago", secs)
	}
}

// helpBinding is a single keyboard shortcut entry.
type helpBinding struct {
	key  string
	desc string
}

// helpBindings defines all keyboard shortcuts shown in the help overlay.
var helpBindings = []helpBinding{
	{key: "q / Ctrl+C", desc: "Quit"},
	{key: "p", desc: "Pause / resume resolution"},
	{key: "r", desc: "Re-read the snapshot"},
	{key: "up / k", desc: "Scroll up"},
	{key: "down / j", desc: "Scroll down"},
	{key: "Esc", desc: "Close this help"},
	{key: "?", desc: "Toggle this help"},
}

// renderHelpOverlay renders a centered help box with keyboard shortcuts.
func (m Model) renderHelpOverlay() string {
	var lines []string
	lines = append(lines, HelpTitleStyle.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	for _, binding := range helpBindings {
		lines = append(lines, HelpKeyStyle.Render(binding.key)+HelpDescStyle.Render(binding.desc))
	}

	lines = append(lines, "")
	lines = append(lines, LabelStyle.Render("Press ? to close"))

	helpBox := HelpBoxStyle.Render(strings.Join(lines, "\n"))

	width := m.width
	height := m.height
	if width <= 0 || height <= 0 {
		return helpBox
	}

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox,
		lipgloss.WithWhitespaceChars(" "),
	)
}
