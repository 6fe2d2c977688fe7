package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"modbridge/internal/backend"
	"modbridge/internal/core"
	"modbridge/internal/logger"
	"modbridge/internal/storage/config"

	"github.com/spf13/cobra"
)

var (
	serveListen string
	serveDB     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development backend",
	Long: `Run a development backend that keeps mod and preset state in SQLite and
serves it over HTTP. It does not move any mod files.

Examples:
  modbridge serve
  modbridge serve --listen 0.0.0.0:8484 --db /tmp/mods.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: listen_addr from config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "database file (default: database_path or <data dir>/modbridge.db)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	svcCfg, err := getServiceConfig()
	if err != nil {
		return err
	}

	appConfig, err := config.LoadWithEnv(svcCfg.ConfigDir, svcCfg.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveListen != "" {
		appConfig.ListenAddr = serveListen
	}
	if serveDB != "" {
		appConfig.DatabasePath = serveDB
	}
	if verbose {
		appConfig.LogLevel = "debug"
	}

	log, cleanup, err := logger.New(logger.Options{
		Level:   appConfig.LogLevel,
		File:    appConfig.LogFile,
		Console: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer cleanup()

	svc, database, err := core.OpenLocalBackend(appConfig, svcCfg.DataDir, log)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := backend.NewHandler(svc, backend.ServerConfig{AuthToken: appConfig.APIToken})
	return backend.Serve(ctx, appConfig.ListenAddr, handler, log.Named("http"))
}
