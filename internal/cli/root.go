package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paulzwoo/arm/internal/config"
	"github.com/paulzwoo/arm/internal/connections"
	"github.com/paulzwoo/arm/internal/errors"
)

// Global flags available to all subcommands
var (
	configFlag   string
	processFlag  string
	pidFlag      string
	resolverFlag string
)

// rootCmd is the base "arm" command.
var rootCmd = &cobra.Command{
	Use:   "arm",
	Short: "Terminal connection monitor",
	Long: `arm watches the network connections of a process using whatever
*nix tooling the system has (netstat, ss, lsof, sockstat, procstat),
falling back between tools as they fail.

Examples:
  arm monitor
  arm connections --process tor
  arm resolvers`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file path (default: .arm.yaml, then ~/.config/arm/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&processFlag, "process", "", "process name to monitor (overrides config)")
	rootCmd.PersistentFlags().StringVar(&pidFlag, "pid", "", "narrow monitoring to a single pid")
	rootCmd.PersistentFlags().StringVar(&resolverFlag, "resolver", "", "force a resolution strategy (netstat, ss, lsof, sockstat, bsd-sockstat, bsd-procstat)")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "machine-readable JSON output")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if machineMode {
			_ = WriteJSONFromError(os.Stderr, err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// loadConfig loads config per the search order and applies the global
// process/pid flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}

	if processFlag != "" {
		cfg.Process.Name = processFlag
	}
	if pidFlag != "" {
		cfg.Process.Pid = pidFlag
	}
	if resolverFlag != "" {
		cfg.Resolver.Kind = resolverFlag
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolverOptions translates config into resolver options. The override
// kind is validated here so a typo fails before any loop starts.
func resolverOptions(cfg *config.Config) ([]connections.ResolverOption, error) {
	var opts []connections.ResolverOption

	// min_rate seeds the adaptive baseline; it is not a fixed rate, so
	// the 100x-lookup-cost floor still applies on slow systems.
	if cfg.Queries.Connections.MinRate > 0 {
		opts = append(opts, connections.WithMinRate(cfg.Queries.Connections.MinRate))
	}

	if cfg.Resolver.Kind != "" {
		kind, err := connections.ParseKind(cfg.Resolver.Kind)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Invalid resolver.kind: %s", cfg.Resolver.Kind),
				"Run 'arm resolvers' to see what this system supports")
		}
		if kind == connections.KindBSDProcstat && cfg.Process.Pid == "" {
			return nil, errors.New(errors.ErrConfig,
				"procstat resolution requires a pid",
				"Pass --pid or set process.pid in your config")
		}
		if kind != connections.KindNone {
			opts = append(opts, connections.WithOverrideKind(kind))
		}
	}

	return opts, nil
}
