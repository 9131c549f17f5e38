package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workbench/api"
	"workbench/config"
	"workbench/detect"
	"workbench/report"
	"workbench/service"
	"workbench/storage"

	"go.uber.org/zap"
)

// App represents the workbench application with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	SQLite *storage.SQLite

	EventStorage    *storage.SQLiteEventStorage
	RuleStorage     *storage.SQLiteRuleStorage
	AlertStorage    *storage.SQLiteAlertStorage
	IncidentStorage *storage.SQLiteIncidentStorage
	ActionStorage   *storage.SQLiteActionStorage
	EvidenceStorage *storage.SQLiteEvidenceStorage
	ImportStorage   *storage.SQLiteImportStorage

	EventService    *service.EventService
	RuleService     *service.RuleService
	AlertService    *service.AlertService
	IncidentService *service.IncidentService
	ImportService   *service.ImportService
	ReportService   *service.ReportService

	Runner    *detect.Runner
	Scheduler *detect.Scheduler
	APIServer *api.API

	shutdownCh chan struct{}
}

// NewApp creates a new application instance and initializes all components.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{shutdownCh: make(chan struct{})}

	cfg, err := InitConfig()
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	logger, sugar, err := InitLogger(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Workbench starting...")
	LogConfigSummary(cfg, sugar)

	if err := EnsureDataDirectories(cfg, sugar); err != nil {
		return nil, fmt.Errorf("pre-flight check failed: %w", err)
	}

	sqlite, err := InitSQLite(cfg, sugar)
	if err != nil {
		return nil, err
	}
	app.SQLite = sqlite

	app.EventStorage = storage.NewSQLiteEventStorage(sqlite, sugar)
	app.RuleStorage = storage.NewSQLiteRuleStorage(sqlite, sugar)
	app.AlertStorage = storage.NewSQLiteAlertStorage(sqlite, sugar)
	app.IncidentStorage = storage.NewSQLiteIncidentStorage(sqlite, sugar)
	app.ActionStorage = storage.NewSQLiteActionStorage(sqlite, sugar)
	app.EvidenceStorage = storage.NewSQLiteEvidenceStorage(sqlite, sugar)
	app.ImportStorage = storage.NewSQLiteImportStorage(sqlite, sugar)

	app.EventService = service.NewEventService(app.EventStorage, sugar)
	app.RuleService = service.NewRuleService(app.RuleStorage, sugar)
	app.AlertService = service.NewAlertService(app.AlertStorage, sugar)
	app.IncidentService = service.NewIncidentService(
		app.IncidentStorage, app.AlertStorage, app.ActionStorage, app.EventStorage,
		cfg.Report.IPFields, sugar)
	app.ImportService = service.NewImportService(app.EventStorage, app.ImportStorage, cfg.DataPaths.ImportDir, sugar)

	exporter := report.NewExporter(cfg.DataPaths.EvidenceDir, app.EvidenceStorage, sugar)
	app.ReportService = service.NewReportService(app.IncidentService, exporter, cfg.Report.TimelineLimit, sugar)

	app.Runner = detect.NewRunner(app.RuleStorage, app.EventStorage, app.AlertStorage,
		cfg.Detection.EventLimit, sugar)

	if cfg.Detection.Schedule != "" {
		app.Scheduler = detect.NewScheduler(app.Runner, cfg.Detection.Schedule,
			time.Duration(cfg.Detection.RunTimeout)*time.Second, sugar)
	}

	app.APIServer = api.NewAPI(
		app.EventService, app.RuleService, app.AlertService, app.Runner,
		app.IncidentService, app.EvidenceStorage, app.ReportService, app.ImportService,
		cfg, sugar)

	return app, nil
}

// Start seeds rules, starts the detection scheduler, and brings up the API
// server.
func (a *App) Start(ctx context.Context) error {
	if a.Config.Detection.RulesFile != "" {
		created, err := a.RuleService.SeedFromFile(ctx, a.Config.Detection.RulesFile)
		if err != nil {
			return fmt.Errorf("failed to seed rules: %w", err)
		}
		a.Sugar.Infow("Rule seeding complete", "file", a.Config.Detection.RulesFile, "created", created)
	}

	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start detection scheduler: %w", err)
		}
		a.Sugar.Infow("Detection scheduler started", "schedule", a.Config.Detection.Schedule)
	}

	go func() {
		if err := a.APIServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Sugar.Errorw("API server stopped", "error", err)
		}
	}()

	return nil
}

// WaitForShutdown blocks until a shutdown signal is received.
func (a *App) WaitForShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.APIServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(a.Config.API.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := a.APIServer.Stop(ctx); err != nil {
			a.Sugar.Errorw("Failed to stop API server", "error", err)
		}
	}

	if a.SQLite != nil {
		if err := a.SQLite.Close(); err != nil {
			a.Sugar.Errorw("Failed to close SQLite", "error", err)
		}
	}

	_ = a.Logger.Sync()
	a.Sugar.Info("Shutdown complete")
}
