package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/paulzwoo/arm/internal/connections"
	"github.com/paulzwoo/arm/internal/errors"
	"github.com/paulzwoo/arm/internal/logger"
	"github.com/paulzwoo/arm/internal/ui"
)

// connectionJSON is the machine-readable shape of one connection.
type connectionJSON struct {
	LocalAddress   string `json:"local_address"`
	LocalPort      string `json:"local_port"`
	ForeignAddress string `json:"foreign_address"`
	ForeignPort    string `json:"foreign_port"`
}

// connectionsData is the --json payload for the connections command.
type connectionsData struct {
	Process     string           `json:"process"`
	Pid         string           `json:"pid,omitempty"`
	Resolver    string           `json:"resolver"`
	Connections []connectionJSON `json:"connections"`
}

// connectionsCommand resolves the process's connections once and prints
// them. The resolver runs in the background, so the command polls the
// cache until the first lookup lands or the wait expires.
func connectionsCommand(wait time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.Noop()
	if !machineMode {
		log = logger.NewEnvLogger("[conn]")
	}

	registry, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}
	defer registry.StopAll()

	resolver := registry.GetResolver(cfg.Process.Name, cfg.Process.Pid)

	conns, err := waitForSnapshot(resolver, wait)
	if err != nil {
		if machineMode {
			return WriteJSONFromError(os.Stdout, err)
		}
		return err
	}

	if machineMode {
		return WriteJSONSuccess(os.Stdout, buildConnectionsData(cfg.Process.Name, cfg.Process.Pid, resolver, conns))
	}

	printConnections(cfg.Process.Name, resolver, conns)
	return nil
}

// waitForSnapshot polls the resolver's cache until the first lookup has
// produced connections, the resolver abandons resolution, or the wait
// expires. An expired wait with an empty cache is reported as a result,
// not an error: the process may simply have no connections.
func waitForSnapshot(resolver *connections.Resolver, wait time.Duration) ([]connections.ConnectionTuple, error) {
	deadline := time.Now().Add(wait)
	for {
		if conns := resolver.GetConnections(); len(conns) > 0 {
			return conns, nil
		}

		if resolver.ActiveKind() == connections.KindNone {
			return nil, errors.New(errors.ErrResolver,
				"All connection resolvers failed",
				"Install netstat, ss, lsof, or sockstat and try again")
		}

		if time.Now().After(deadline) {
			return nil, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// buildConnectionsData shapes the result for JSON output.
func buildConnectionsData(name, pid string, resolver *connections.Resolver, conns []connections.ConnectionTuple) connectionsData {
	out := connectionsData{
		Process:     name,
		Pid:         pid,
		Resolver:    resolver.ActiveKind().Label(),
		Connections: make([]connectionJSON, len(conns)),
	}
	for i, c := range conns {
		out.Connections[i] = connectionJSON{
			LocalAddress:   c.LocalAddress,
			LocalPort:      c.LocalPort,
			ForeignAddress: c.ForeignAddress,
			ForeignPort:    c.ForeignPort,
		}
	}
	return out
}

// printConnections renders the human-readable listing. Styling is
// dropped when stdout isn't a terminal so piped output stays clean.
func printConnections(name string, resolver *connections.Resolver, conns []connections.ConnectionTuple) {
	interactive := term.IsTerminal(int(os.Stdout.Fd())) && ui.ColorEnabled()

	header := fmt.Sprintf("%d connections for %s (via %s)",
		len(conns), name, resolver.ActiveKind().Label())
	if interactive {
		header = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorSecondary).Render(header)
	}
	fmt.Println(header)

	if len(conns) == 0 {
		fmt.Println("  (none)")
		return
	}

	muted := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	for _, c := range conns {
		arrow := "->"
		if interactive {
			arrow = muted.Render("->")
		}
		fmt.Printf("  %s:%s %s %s:%s\n",
			c.LocalAddress, c.LocalPort, arrow, c.ForeignAddress, c.ForeignPort)
	}
}
