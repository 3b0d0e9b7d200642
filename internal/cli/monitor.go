package cli

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/paulzwoo/arm/internal/config"
	"github.com/paulzwoo/arm/internal/connections"
	"github.com/paulzwoo/arm/internal/logger"
	"github.com/paulzwoo/arm/internal/monitor"
	"github.com/paulzwoo/arm/internal/sysexec"
)

// monitorCommand starts the TUI connection dashboard. A zero interval
// defers to the config file, which in turn defaults to 2s.
func monitorCommand(interval time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if interval == 0 {
		interval = cfg.Monitor.Interval
	}

	// Stderr logging would corrupt the alt screen, so the resolver
	// stays quiet while the dashboard runs.
	registry, err := newRegistry(cfg, logger.Noop())
	if err != nil {
		return err
	}
	defer registry.StopAll()

	resolver := registry.GetResolver(cfg.Process.Name, cfg.Process.Pid)
	model := monitor.NewModel(resolver, interval)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// newRegistry builds the resolver registry the way the config asks for,
// with command output cached so rapid reads don't spawn duplicate
// subprocesses.
func newRegistry(cfg *config.Config, log logger.Logger) (*connections.Registry, error) {
	resolverOpts, err := resolverOptions(cfg)
	if err != nil {
		return nil, err
	}

	opts := []connections.RegistryOption{
		connections.WithRegistryLogger(log),
		connections.WithResolverOptions(resolverOpts...),
	}
	if cfg.Resolver.RecreateHalted {
		opts = append(opts, connections.WithRecreateHalted())
	}

	runner := sysexec.NewCachedRunner(sysexec.NewShellRunner(), 0)
	return connections.NewRegistry(runner, opts...), nil
}
