package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"modbridge/internal/core"
	"modbridge/internal/storage/config"

	"github.com/spf13/cobra"
)

// ErrCancelled is returned when the user cancels an operation.
// When returned from a command, Execute exits with code 2.
var ErrCancelled = errors.New("cancelled")

var (
	version = "0.3.0"

	// Global flags
	configDir  string
	configFile string
	dataDir    string
	backendURL string
	localMode  bool
	verbose    bool
	jsonOutput bool
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modbridge",
	Short: "modbridge - mod activation and preset manager",
	Long: `modbridge keeps a local view of installed mods and presets in sync with a
mod management backend. It toggles mods, applies presets as the exclusive active
set, and can run a development backend of its own.

Use subcommands for operations. Run 'modbridge --help' for available commands.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: ~/.config/modbridge)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "explicit config file (absolute path, .yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory for the local database (default: ~/.local/share/modbridge)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend URL (overrides backend_url)")
	rootCmd.PersistentFlags().BoolVar(&localMode, "local", false, "use the local database directly instead of a backend server")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// colorEnabled respects --no-color and the NO_COLOR environment variable
func colorEnabled() bool {
	if noColor {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
)

func colorize(code, s string) string {
	if !colorEnabled() {
		return s
	}
	return code + s + ansiReset
}

func colorGreen(s string) string  { return colorize(ansiGreen, s) }
func colorRed(s string) string    { return colorize(ansiRed, s) }
func colorYellow(s string) string { return colorize(ansiYellow, s) }

// Execute runs the root command. Exit codes: 0 = success, 1 = error, 2 = user cancelled.
// When --json is set and an error occurs, prints {"error":"..."} to stdout before exiting.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrCancelled) {
			os.Exit(2)
		}
		if jsonOutput {
			fmt.Printf(`{"error":%q}`+"\n", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// getServiceConfig resolves directories and global flags into a service configuration
func getServiceConfig() (core.ServiceConfig, error) {
	cfg := core.ServiceConfig{
		ConfigDir:  configDir,
		DataDir:    dataDir,
		BackendURL: backendURL,
		Local:      localMode,
	}

	if cfg.ConfigDir == "" || cfg.DataDir == "" {
		dirs, err := config.DefaultDirs()
		if err != nil {
			return core.ServiceConfig{}, err
		}
		if cfg.ConfigDir == "" {
			cfg.ConfigDir = dirs.Config
		}
		if cfg.DataDir == "" {
			cfg.DataDir = dirs.Data
		}
	}

	if configFile != "" {
		path, err := config.ParseConfigPath(configFile)
		if err != nil {
			return core.ServiceConfig{}, fmt.Errorf("--config-file: %w", err)
		}
		cfg.ConfigFile = path
	}

	if verbose {
		cfg.LogLevel = "debug"
		cfg.LogConsole = os.Stderr
	}
	return cfg, nil
}

// initService creates the core service and loads the current state from the backend
func initService(ctx context.Context) (*core.Service, error) {
	cfg, err := getServiceConfig()
	if err != nil {
		return nil, err
	}

	svc, err := core.NewService(cfg)
	if err != nil {
		return nil, err
	}

	if err := svc.Controller().Refresh(ctx, true); err != nil {
		svc.Close()
		return nil, fmt.Errorf("loading state: %w", err)
	}
	return svc, nil
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// confirm asks a yes/no question on the command's streams and returns ErrCancelled
// unless the answer is y or yes. skip bypasses the prompt.
func confirm(cmd *cobra.Command, skip bool, question string) error {
	if skip {
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)

	input, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	if input != "y" && input != "yes" {
		return ErrCancelled
	}
	return nil
}

// yesNo renders a bool as a colored yes/no
func yesNo(b bool) string {
	if b {
		return colorGreen("yes")
	}
	return "no"
}
