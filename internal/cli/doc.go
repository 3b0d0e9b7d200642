// Package cli implements the arm command-line interface.
//
// The package is organized around Cobra commands, with each command
// delegating to a small command function for the actual work. The
// general structure follows a clean separation between:
//
//   - Command definitions (cobra.Command instances)
//   - Command functions (monitorCommand, connectionsCommand, ...)
//   - Implementation details (in other internal packages)
//
// # Command Structure
//
// The root command is "arm" with subcommands for different operations:
//
//	arm monitor       - Live connection dashboard
//	arm connections   - One-shot connection listing
//	arm resolvers     - Show resolution strategies for this system
//	arm init          - Create .arm.yaml config
//	arm version       - Print version information
//	arm completion    - Generate shell completion scripts
//
// # Flag Handling
//
// Global flags (--config, --process, --pid, --resolver, --json) are
// defined on the root command and available to all subcommands.
// Command-specific flags like --interval are defined on individual
// commands.
//
// The --process and --pid flags override whatever the config file says,
// so "arm connections --process firefox" needs no config at all.
package cli
