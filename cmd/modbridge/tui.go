package main

import (
	"fmt"

	"modbridge/internal/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal interface",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Logs would draw over the alternate screen
	wasVerbose := verbose
	verbose = false
	defer func() { verbose = wasVerbose }()

	svc, err := initService(cmd.Context())
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	return tui.Run(cmd.Context(), svc.Controller(), svc.Config().Keybindings)
}
