package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/paulzwoo/arm/internal/config"
	"github.com/paulzwoo/arm/internal/errors"
	"github.com/paulzwoo/arm/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Process        string // Pre-specified process name
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use defaults
}

// Init creates a new .arm.yaml configuration file.
func Init(opts InitOptions) error {
	configPath := filepath.Join(".", config.ConfigFileName)

	// Check for existing config
	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		var overwrite bool

		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)

		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}

		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg := config.Default()

	if opts.NonInteractive {
		if opts.Process != "" {
			cfg.Process.Name = opts.Process
		}
	} else {
		if err := promptForConfig(cfg, opts.Process); err != nil {
			return err
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := config.Write(cfg, configPath); err != nil {
		return err
	}

	fmt.Printf("%s Created %s\n\n", ui.SymbolSuccess, configPath)
	fmt.Println("Next steps:")
	fmt.Println("  arm connections  - List the process's connections once")
	fmt.Println("  arm monitor      - Open the live dashboard")
	fmt.Println("  arm resolvers    - See which resolution tools are installed")

	return nil
}

// promptForConfig walks the user through the config values.
func promptForConfig(cfg *config.Config, presetProcess string) error {
	processName := cfg.Process.Name
	if presetProcess != "" {
		processName = presetProcess
	}
	processPid := ""
	interval := cfg.Monitor.Interval.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Process name").
				Description("As it appears in netstat/ss output").
				Placeholder("tor").
				Value(&processName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("process name is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Process id (optional)").
				Description("Narrows monitoring to one pid; empty matches any").
				Placeholder("leave empty to match any pid").
				Value(&processPid).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					if _, err := strconv.Atoi(s); err != nil {
						return fmt.Errorf("pid must be a number")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Dashboard refresh interval").
				Description("How often the monitor re-reads the snapshot").
				Placeholder("2s").
				Value(&interval).
				Validate(func(s string) error {
					parsed, err := time.ParseDuration(s)
					if err != nil {
						return fmt.Errorf("use a duration like 2s or 1m")
					}
					if parsed < 500*time.Millisecond {
						return fmt.Errorf("minimum interval is 500ms")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive")
	}

	cfg.Process.Name = strings.TrimSpace(processName)
	cfg.Process.Pid = strings.TrimSpace(processPid)
	parsed, err := time.ParseDuration(interval)
	if err == nil {
		cfg.Monitor.Interval = parsed
	}
	return nil
}

// initCommand is the implementation called by the cobra command.
func initCommand(processFlag string, force, nonInteractive bool) error {
	return Init(InitOptions{
		Process:        processFlag,
		Overwrite:      force,
		NonInteractive: nonInteractive,
	})
}
