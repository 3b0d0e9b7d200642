package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/paulzwoo/arm/internal/errors"
)

// Command-specific flags
var (
	monitorIntervalFlag string
	connectionsWaitFlag string
	resolversOSFlag     string
	initForce           bool
	initNonInteractive  bool
)

// monitorCmd starts the TUI connection dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live connection dashboard for a process",
	Long: `Start an interactive TUI dashboard showing the monitored process's
current network connections.

Connections are resolved in the background at a paced rate; the
dashboard only ever reads the cached snapshot, so refreshes are cheap.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  p           Pause / resume resolution
  r           Re-read the snapshot
  up/k        Scroll up
  down/j      Scroll down
  ?           Show help

Examples:
  arm monitor
  arm monitor --process firefox
  arm monitor --interval 5s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := parseIntervalFlag(monitorIntervalFlag)
		if err != nil {
			return err
		}
		return monitorCommand(interval)
	},
}

// connectionsCmd prints a one-shot connection listing
var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "List the process's current connections",
	Long: `Resolve and print the process's current connections once, then exit.

Useful for scripting, or for a quick check without the full dashboard.

Examples:
  arm connections
  arm connections --process tor --pid 9912
  arm connections --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, err := parseWaitFlag(connectionsWaitFlag)
		if err != nil {
			return err
		}
		return connectionsCommand(wait)
	},
}

// resolversCmd shows the resolution strategies for a platform
var resolversCmd = &cobra.Command{
	Use:   "resolvers",
	Short: "Show connection resolvers for this system",
	Long: `List the connection resolution strategies in the order they would be
tried on this system, with availability of each underlying tool.

Examples:
  arm resolvers
  arm resolvers --os freebsd
  arm resolvers --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolversCommand(resolversOSFlag)
	},
}

// initCmd creates a new .arm.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .arm.yaml configuration",
	Long: `Initialize a new arm configuration file.

Creates a .arm.yaml file in the current directory with sensible
defaults, guiding you through the choices with interactive prompts.

Examples:
  arm init
  arm init --process tor
  arm init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(processFlag, initForce, initNonInteractive)
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for arm.

Examples:
  # Bash
  arm completion bash > /etc/bash_completion.d/arm

  # Zsh
  arm completion zsh > "${fpath[1]}/_arm"

  # Fish
  arm completion fish > ~/.config/fish/completions/arm.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return errors.New(errors.ErrExec,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// monitor command flags
	monitorCmd.Flags().StringVar(&monitorIntervalFlag, "interval", "", "dashboard refresh interval (e.g., 2s, 5s, 1m)")

	// connections command flags
	connectionsCmd.Flags().StringVar(&connectionsWaitFlag, "wait", "10s", "how long to wait for the first lookup")

	// resolvers command flags
	resolversCmd.Flags().StringVar(&resolversOSFlag, "os", "", "show resolvers for another OS (e.g., freebsd)")

	// init command flags
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "skip prompts, use flags and defaults")

	// Register all commands
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(connectionsCmd)
	rootCmd.AddCommand(resolversCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}

// parseIntervalFlag parses the --interval flag. Empty defers to config.
func parseIntervalFlag(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	parsed, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Invalid interval: %s", flag),
			"Use a valid duration like 2s, 5s, or 1m")
	}
	if parsed < 500*time.Millisecond {
		return 0, errors.New(errors.ErrConfig,
			"Interval too short",
			"Minimum interval is 500ms to keep the dashboard responsive")
	}
	return parsed, nil
}

// parseWaitFlag parses the --wait flag for the one-shot listing.
func parseWaitFlag(flag string) (time.Duration, error) {
	parsed, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Invalid wait duration: %s", flag),
			"Use a valid duration like 5s or 30s")
	}
	if parsed <= 0 {
		return 0, errors.New(errors.ErrConfig,
			"Wait duration must be positive",
			"Use a valid duration like 5s or 30s")
	}
	return parsed, nil
}
