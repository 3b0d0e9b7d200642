package monitor

import tea "github.com/charmbracelet/bubbletea"

// Key bindings as constants for consistency.
const (
	KeyQuit       = "q"
	KeyQuitAlt    = "ctrl+c"
	KeyRefresh    = "r"
	KeyPause      = "p"
	KeyToggleHelp = "?"
	KeyCollapse   = "esc"
)

// handleKey processes keyboard input. Returns true if the key was
// handled; unhandled keys fall through to the table for cursor
// movement.
func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// Help toggle takes priority
	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	// If help is showing, Esc closes it
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		// The cache read is free; the resolver decides on its own when
		// the underlying tool actually runs again.
		m.refreshSnapshot()
		return true, nil

	case KeyPause:
		m.resolver.SetPaused(!m.resolver.IsPaused())
		return true, nil
	}

	return false, nil
}
