// Package monitor implements the interactive dashboard that displays a
// process's live connections. It only ever reads the resolver's cached
// snapshot; the resolver's own background loop decides when the
// underlying tools actually run.
package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/paulzwoo/arm/internal/connections"
)

// DefaultInterval is how often the dashboard re-reads the snapshot when
// the config doesn't say otherwise.
const DefaultInterval = 2 * time.Second

// Model is the Bubble Tea model for the connection dashboard.
type Model struct {
	resolver *connections.Resolver
	interval time.Duration

	table   table.Model
	spinner spinner.Model
	history *History

	width      int
	height     int
	lastUpdate time.Time
	sampled    bool // at least one snapshot had connections
	showHelp   bool
	quitting   bool
}

// tickMsg signals a periodic snapshot refresh.
type tickMsg time.Time

// NewModel creates a dashboard model reading from the given resolver.
func NewModel(resolver *connections.Resolver, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"◐", "◓", "◑", "◒"},
		FPS:    time.Second / 10,
	}
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	tbl := table.New(
		table.WithColumns(connectionColumns(80)),
		table.WithFocused(true),
	)
	tbl.SetStyles(tableStyles())

	return Model{
		resolver: resolver,
		interval: interval,
		table:    tbl,
		spinner:  sp,
		history:  NewHistory(DefaultHistorySize),
	}
}

// Init starts the tick timer and spinner animation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.spinner.Tick)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.handleKey(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(connectionColumns(m.width))
		m.table.SetHeight(m.tableHeight())

	case tickMsg:
		m.refreshSnapshot()
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Everything else (including unhandled keys) goes to the table so
	// cursor movement keeps working.
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// refreshSnapshot re-reads the resolver's cache into the table.
func (m *Model) refreshSnapshot() {
	conns := m.resolver.GetConnections()
	m.lastUpdate = time.Now()
	m.history.Push(len(conns))
	if len(conns) > 0 {
		m.sampled = true
	}

	rows := make([]table.Row, len(conns))
	for i, c := range conns {
		rows[i] = table.Row{
			c.LocalAddress + ":" + c.LocalPort,
			c.ForeignAddress + ":" + c.ForeignPort,
		}
	}
	m.table.SetRows(rows)
}

// tickCmd returns a command that sends a tick after the refresh interval.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// tableHeight leaves room for the header, sparkline, and footer.
func (m Model) tableHeight() int {
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	return h
}

// SecondsSinceUpdate returns whole seconds since the last refresh.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(time.Since(m.lastUpdate).Seconds())
}

// connectionColumns sizes the two address columns to the terminal.
func connectionColumns(width int) []table.Column {
	col := (width - 6) / 2
	if col < 22 {
		col = 22
	}
	return []table.Column{
		{Title: "Local", Width: col},
		{Title: "Foreign", Width: col},
	}
}

// tableStyles applies the dashboard palette to the bubbles table.
func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(ColorTextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(ColorTextPrimary).
		Background(ColorSurfaceBg).
		Bold(true)
	return s
}
