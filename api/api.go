// Package api exposes the REST surface: event ingestion, rule and incident
// management, detection runs, packet assembly, and report export.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"workbench/config"
	"workbench/core"
	"workbench/detect"
	"workbench/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// EventIngester handles single-event ingestion and retrieval.
type EventIngester interface {
	IngestEvent(ctx context.Context, input service.IngestEventInput) (*core.Event, error)
	ListEvents(ctx context.Context, limit int) ([]core.Event, error)
	GetEvent(ctx context.Context, id string) (*core.Event, error)
}

// RuleManager handles detection rule CRUD.
type RuleManager interface {
	CreateRule(ctx context.Context, input service.CreateRuleInput) (*core.Rule, error)
	ListRules(ctx context.Context) ([]core.Rule, error)
	GetRule(ctx context.Context, id string) (*core.Rule, error)
	DeleteRule(ctx context.Context, id string) error
}

// AlertReader handles alert retrieval and deletion.
type AlertReader interface {
	ListAlerts(ctx context.Context, limit int) ([]core.Alert, error)
	GetAlert(ctx context.Context, id string) (*core.Alert, error)
	DeleteAlert(ctx context.Context, id string) error
}

// DetectionRunner triggers a detection run.
type DetectionRunner interface {
	Run(ctx context.Context) (detect.RunResult, error)
}

// IncidentManager handles the incident lifecycle and packet assembly.
type IncidentManager interface {
	CreateIncident(ctx context.Context, input service.CreateIncidentInput) (*core.Incident, error)
	ListIncidents(ctx context.Context, limit int) ([]core.Incident, error)
	GetIncident(ctx context.Context, id string) (*core.Incident, error)
	DeleteIncident(ctx context.Context, id string) error
	LinkAlert(ctx context.Context, incidentID, alertID string) (bool, error)
	AddAction(ctx context.Context, incidentID string, input service.AddActionInput) (*core.IncidentAction, error)
	ListActions(ctx context.Context, incidentID string) ([]core.IncidentAction, error)
	CloseIncident(ctx context.Context, id string) (*core.Incident, error)
	BuildPacket(ctx context.Context, incidentID string) (*core.IncidentPacket, error)
}

// EvidenceReader lists an incident's evidence files.
type EvidenceReader interface {
	GetEvidenceByIncident(ctx context.Context, incidentID string) ([]core.EvidenceFile, error)
}

// ReportRenderer renders an incident's Markdown report.
type ReportRenderer interface {
	RenderMarkdown(ctx context.Context, incidentID string) (string, error)
}

// Importer handles JSONL bulk uploads.
type Importer interface {
	ImportJSONL(ctx context.Context, r io.Reader, filename, source, host, user string) (*core.ImportJob, error)
	ListImportJobs(ctx context.Context, limit int) ([]core.ImportJob, error)
	DeleteImportJob(ctx context.Context, id string) error
}

// rateLimiterEntry holds a per-client rate limiter with last seen time.
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// authFailureEntry holds auth failure count and last failure time.
type authFailureEntry struct {
	count    int
	lastFail time.Time
}

// API holds the REST server.
type API struct {
	router         *mux.Router
	server         *http.Server
	events         EventIngester
	rules          RuleManager
	alerts         AlertReader
	detections     DetectionRunner
	incidents      IncidentManager
	evidence       EvidenceReader
	reports        ReportRenderer
	imports        Importer
	config         *config.Config
	logger         *zap.SugaredLogger
	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex
	authFailures   map[string]*authFailureEntry
	authFailuresMu sync.Mutex
	stopCh         chan struct{}
}

// NewAPI creates the REST server with all routes registered.
func NewAPI(events EventIngester, rules RuleManager, alerts AlertReader, detections DetectionRunner,
	incidents IncidentManager, evidence EvidenceReader, reports ReportRenderer, imports Importer,
	cfg *config.Config, logger *zap.SugaredLogger) *API {
	api := &API{
		router:       mux.NewRouter(),
		events:       events,
		rules:        rules,
		alerts:       alerts,
		detections:   detections,
		incidents:    incidents,
		evidence:     evidence,
		reports:      reports,
		imports:      imports,
		config:       cfg,
		logger:       logger,
		rateLimiters: make(map[string]*rateLimiterEntry),
		authFailures: make(map[string]*authFailureEntry),
		stopCh:       make(chan struct{}),
	}
	api.setupRoutes()
	go api.cleanupRateLimiters()
	return api
}

// setupRoutes registers middleware and routes.
func (a *API) setupRoutes() {
	a.router.Use(a.loggingMiddleware)
	a.router.Use(a.rateLimitMiddleware)
	if a.config.AuthEnabled() {
		a.router.Use(a.apiKeyMiddleware)
	}

	a.router.HandleFunc("/api/events", a.ingestEvent).Methods("POST")
	a.router.HandleFunc("/api/events", a.getEvents).Methods("GET")
	a.router.HandleFunc("/api/events/{id}", a.getEvent).Methods("GET")

	a.router.HandleFunc("/api/rules", a.createRule).Methods("POST")
	a.router.HandleFunc("/api/rules", a.getRules).Methods("GET")
	a.router.HandleFunc("/api/rules/{id}", a.getRule).Methods("GET")
	a.router.HandleFunc("/api/rules/{id}", a.deleteRule).Methods("DELETE")

	a.router.HandleFunc("/api/alerts", a.getAlerts).Methods("GET")
	a.router.HandleFunc("/api/alerts/{id}", a.getAlert).Methods("GET")
	a.router.HandleFunc("/api/alerts/{id}", a.deleteAlert).Methods("DELETE")

	a.router.HandleFunc("/api/detections/run", a.runDetections).Methods("POST")

	a.router.HandleFunc("/api/incidents", a.createIncident).Methods("POST")
	a.router.HandleFunc("/api/incidents", a.getIncidents).Methods("GET")
	a.router.HandleFunc("/api/incidents/{id}", a.getIncident).Methods("GET")
	a.router.HandleFunc("/api/incidents/{id}", a.deleteIncident).Methods("DELETE")
	a.router.HandleFunc("/api/incidents/{id}/alerts", a.linkAlert).Methods("POST")
	a.router.HandleFunc("/api/incidents/{id}/actions", a.addAction).Methods("POST")
	a.router.HandleFunc("/api/incidents/{id}/actions", a.getActions).Methods("GET")
	a.router.HandleFunc("/api/incidents/{id}/close", a.closeIncident).Methods("POST")
	a.router.HandleFunc("/api/incidents/{id}/packet", a.getPacket).Methods("GET")
	a.router.HandleFunc("/api/incidents/{id}/evidence", a.getEvidence).Methods("GET")
	a.router.HandleFunc("/api/incidents/{id}/report/markdown", a.getMarkdownReport).Methods("GET")

	a.router.HandleFunc("/api/imports/jsonl", a.importJSONL).Methods("POST")
	a.router.HandleFunc("/api/imports", a.getImportJobs).Methods("GET")
	a.router.HandleFunc("/api/imports/{id}", a.deleteImportJob).Methods("DELETE")

	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler())
}

// Start begins listening on the configured address. Blocks until the
// server stops.
func (a *API) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.API.Host, a.config.API.Port)
	a.server = &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.API.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.API.WriteTimeout) * time.Second,
	}
	a.logger.Infow("API server listening", "addr", addr)
	return a.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (a *API) Stop(ctx context.Context) error {
	close(a.stopCh)
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}

// Router exposes the handler for tests.
func (a *API) Router() http.Handler {
	return a.router
}
