package main

import (
	"fmt"

	"modbridge/internal/core"
	"modbridge/internal/domain"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long: `Show the backend in use, mod and preset counts, and which presets match the
current active set.

Examples:
  modbridge status
  modbridge status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusJSON struct {
	Backend string       `json:"backend"`
	Stats   domain.Stats `json:"stats"`
	Applied []string     `json:"applied_presets"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	backend := svc.Config().BackendURL
	if localMode {
		backend = "local"
	}

	snap := svc.Store().Snapshot()
	applied := []string{}
	for _, p := range snap.Presets {
		if core.IsPresetApplied(p, snap.Mods) {
			applied = append(applied, p.Name)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, statusJSON{Backend: backend, Stats: snap.Stats, Applied: applied})
	}

	fmt.Fprintf(out, "Backend:   %s\n", backend)
	fmt.Fprintf(out, "Mods:      %d installed, %s active, %d inactive\n",
		snap.Stats.InstalledMods, colorGreen(fmt.Sprint(snap.Stats.ActiveMods)), snap.Stats.InactiveMods)
	fmt.Fprintf(out, "Presets:   %d\n", snap.Stats.Presets)
	if len(applied) == 0 {
		fmt.Fprintln(out, "Applied:   none")
	} else {
		for i, name := range applied {
			label := "Applied:  "
			if i > 0 {
				label = "          "
			}
			fmt.Fprintf(out, "%s %s\n", label, name)
		}
	}
	return nil
}
