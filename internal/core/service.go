package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"modbridge/internal/backend"
	"modbridge/internal/domain"
	"modbridge/internal/gateway"
	"modbridge/internal/logger"
	"modbridge/internal/storage/config"
	"modbridge/internal/storage/db"
	"modbridge/internal/store"

	"go.uber.org/zap"
)

// DatabaseFile is the default database name inside the data directory
const DatabaseFile = "modbridge.db"

// ErrAddUnsupported is returned when the gateway cannot register mods
var ErrAddUnsupported = errors.New("gateway does not support adding mods")

// ServiceConfig holds configuration for the core service
type ServiceConfig struct {
	ConfigDir  string    // Directory holding config.yaml
	ConfigFile string    // Explicit config file, wins over ConfigDir
	DataDir    string    // Directory for the local database
	BackendURL string    // Overrides backend_url
	Local      bool      // Use an in-process backend instead of HTTP
	LogLevel   string    // Overrides log_level
	LogConsole io.Writer // Optional console log sink
}

// Service wires configuration, logging, gateway, store and controller together
type Service struct {
	config     *config.Config
	log        *zap.SugaredLogger
	logCleanup func()
	db         *db.DB
	gateway    gateway.Gateway
	store      *store.Store
	controller *Controller
}

// modRegistrar is implemented by gateways that can register new mods
type modRegistrar interface {
	AddMod(ctx context.Context, title, character string, active bool) (domain.Mod, error)
}

// NewService creates a new core service instance
func NewService(cfg ServiceConfig) (*Service, error) {
	appConfig, err := config.LoadWithEnv(cfg.ConfigDir, cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.BackendURL != "" {
		appConfig.BackendURL = cfg.BackendURL
	}
	if cfg.LogLevel != "" {
		appConfig.LogLevel = cfg.LogLevel
	}

	log, cleanup, err := logger.New(logger.Options{
		Level:   appConfig.LogLevel,
		File:    appConfig.LogFile,
		Console: cfg.LogConsole,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	var (
		gw       gateway.Gateway
		database *db.DB
	)
	if cfg.Local {
		var svc *backend.Service
		svc, database, err = OpenLocalBackend(appConfig, cfg.DataDir, log)
		if err != nil {
			cleanup()
			return nil, err
		}
		gw = svc
	} else {
		gw, err = gateway.NewHTTPClient(gateway.HTTPConfig{
			BaseURL:   appConfig.BackendURL,
			Timeout:   appConfig.RequestTimeout,
			AuthToken: appConfig.APIToken,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("creating gateway: %w", err)
		}
	}

	s, err := newService(appConfig, gw, log)
	if err != nil {
		if database != nil {
			database.Close()
		}
		cleanup()
		return nil, err
	}
	s.db = database
	s.logCleanup = cleanup
	return s, nil
}

// NewServiceWithGateway builds a service around an existing gateway
func NewServiceWithGateway(appConfig *config.Config, gw gateway.Gateway, log *zap.SugaredLogger) (*Service, error) {
	if appConfig == nil {
		appConfig = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return newService(appConfig, gw, log)
}

func newService(appConfig *config.Config, gw gateway.Gateway, log *zap.SugaredLogger) (*Service, error) {
	mode, err := ParseSlotMode(appConfig.SlotMode)
	if err != nil {
		return nil, err
	}

	st := store.New()
	engine := NewEngine(gw, st, log.Named("engine"))

	return &Service{
		config:     appConfig,
		log:        log,
		logCleanup: func() {},
		gateway:    gw,
		store:      st,
		controller: NewController(engine, mode, log.Named("controller")),
	}, nil
}

// OpenLocalBackend opens the configured database and wraps it in a backend service
func OpenLocalBackend(appConfig *config.Config, dataDir string, log *zap.SugaredLogger) (*backend.Service, *db.DB, error) {
	dbPath := appConfig.DatabasePath
	if dbPath == "" {
		if dataDir == "" {
			return nil, nil, fmt.Errorf("%w: no database_path or data directory", domain.ErrInvalidConfig)
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("creating data dir: %w", err)
		}
		dbPath = filepath.Join(dataDir, DatabaseFile)
	}

	database, err := db.New(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	return backend.NewService(database, backend.WithLogger(log.Named("backend"))), database, nil
}

// Close releases resources held by the service
func (s *Service) Close() error {
	s.store.Close()
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	s.logCleanup()
	return err
}

// Config returns the loaded configuration
func (s *Service) Config() *config.Config { return s.config }

// Logger returns the service logger
func (s *Service) Logger() *zap.SugaredLogger { return s.log }

// Controller returns the operation controller
func (s *Service) Controller() *Controller { return s.controller }

// Store returns the entity store
func (s *Service) Store() *store.Store { return s.store }

// Gateway returns the gateway in use
func (s *Service) Gateway() gateway.Gateway { return s.gateway }

// Refresh loads the full state, showing the loading flag
func (s *Service) Refresh(ctx context.Context) error {
	return s.controller.Refresh(ctx, false)
}

// AddMod registers a mod when the gateway supports it, then refreshes mods
func (s *Service) AddMod(ctx context.Context, title, character string, active bool) (domain.Mod, error) {
	return s.controller.AddMod(ctx, title, character, active)
}

// ExportPreset renders a stored preset as portable YAML
func (s *Service) ExportPreset(presetID string) ([]byte, error) {
	preset, err := s.store.Preset(presetID)
	if err != nil {
		return nil, err
	}
	return config.ExportPreset(preset, s.store.Mods())
}

// ImportPreset creates a preset from a portable YAML document
func (s *Service) ImportPreset(ctx context.Context, data []byte) (domain.Preset, error) {
	name, ids, err := config.ImportPreset(data)
	if err != nil {
		return domain.Preset{}, err
	}

	preset, err := s.controller.CreatePreset(ctx, name, ids)
	if err != nil {
		return domain.Preset{}, err
	}
	if stale := preset.StaleIDs(s.store.Mods()); len(stale) > 0 {
		s.log.Warnw("imported preset references unknown mods", "preset", preset.ID, "missing", stale)
	}
	return preset, nil
}

// FindPreset resolves a preset by id or, failing that, by exact name
func (s *Service) FindPreset(ref string) (domain.Preset, error) {
	if p, err := s.store.Preset(ref); err == nil {
		return p, nil
	}
	for _, p := range s.store.Presets() {
		if p.Name == ref {
			return p, nil
		}
	}
	return domain.Preset{}, fmt.Errorf("%w: %s", domain.ErrPresetNotFound, ref)
}
