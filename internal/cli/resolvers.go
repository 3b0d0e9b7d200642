package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/paulzwoo/arm/internal/connections"
	"github.com/paulzwoo/arm/internal/sysexec"
	"github.com/paulzwoo/arm/internal/ui"
)

// resolverInfo describes one resolution strategy for listing.
type resolverInfo struct {
	Kind      string `json:"kind"`
	Tool      string `json:"tool"`
	Available bool   `json:"available"`
	Command   string `json:"command"`
}

// resolversData is the --json payload for the resolvers command.
type resolversData struct {
	OS        string         `json:"os"`
	Resolvers []resolverInfo `json:"resolvers"`
}

// resolversCommand lists the resolution strategies for the OS in
// fail-over order, with whether each underlying tool is installed and
// the command it would run.
func resolversCommand(osType string) error {
	if osType == "" {
		osType = runtime.GOOS
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner := sysexec.NewCachedRunner(sysexec.NewShellRunner(), 0)
	infos := listResolvers(osType, cfg.Process.Name, cfg.Process.Pid, runner)

	if machineMode {
		return WriteJSONSuccess(os.Stdout, resolversData{OS: osType, Resolvers: infos})
	}

	printResolvers(osType, infos)
	return nil
}

// listResolvers builds the resolver listing for an OS.
func listResolvers(osType, processName, processPid string, runner sysexec.Runner) []resolverInfo {
	kinds := connections.SystemResolvers(osType)
	infos := make([]resolverInfo, 0, len(kinds))

	for _, kind := range kinds {
		cmd, err := connections.BuildCommand(kind, processName, processPid)
		if err != nil {
			// procstat without a pid; show the template contract instead.
			cmd = "(requires --pid)"
		}
		infos = append(infos, resolverInfo{
			Kind:      kind.Label(),
			Tool:      kind.Tool(),
			Available: runner.IsAvailable(kind.Tool()),
			Command:   cmd,
		})
	}
	return infos
}

// printResolvers renders the human-readable listing.
func printResolvers(osType string, infos []resolverInfo) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorSecondary)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	okStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	missingStyle := lipgloss.NewStyle().Foreground(ui.ColorError)

	fmt.Println(headerStyle.Render(fmt.Sprintf("Connection resolvers for %s (in fail-over order)", osType)))
	fmt.Println()

	for _, info := range infos {
		marker := okStyle.Render(ui.SymbolSuccess)
		if !info.Available {
			marker = missingStyle.Render(ui.SymbolFail)
		}
		fmt.Printf("  %s %-16s %s\n", marker, info.Kind, mutedStyle.Render(info.Command))
	}

	fmt.Println()
	fmt.Println(mutedStyle.Render("Force one with --resolver or resolver.kind in .arm.yaml"))
}
