package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/codeauditor/codeauditor/internal/auditcache"
	"github.com/codeauditor/codeauditor/internal/auditqueue"
	appconfig "github.com/codeauditor/codeauditor/internal/config"
	"github.com/codeauditor/codeauditor/internal/engine"
	"github.com/codeauditor/codeauditor/internal/env"
	"github.com/codeauditor/codeauditor/internal/events"
	"github.com/codeauditor/codeauditor/internal/judgeclient"
	"github.com/codeauditor/codeauditor/internal/logging"
	"github.com/codeauditor/codeauditor/internal/parser"
	"github.com/codeauditor/codeauditor/internal/procmanager"
	"github.com/codeauditor/codeauditor/internal/progress"
	"github.com/codeauditor/codeauditor/internal/review"
	"github.com/codeauditor/codeauditor/internal/session"
	"github.com/codeauditor/codeauditor/internal/validator"
)

// sessionBackend is the subset of *session.FileSessionStore (and, via
// embedding, *session.CompactStore) the CLI needs: history/recorder
// methods plus the read-side operations "sessions" and "health" expose.
// Kept here rather than in internal/session so that package doesn't need
// to know about its two concrete implementations as an abstraction.
type sessionBackend interface {
	AddAuditToHistory(sessionID string, thoughtNumber int, rev review.Review, cfg engine.SessionConfig) error
	RecordCodexFailure(sessionID string, thoughtNumber int, errMsg string)
	GetSession(sessionID string) (*session.State, error)
	GetAllSessions() ([]session.Info, error)
	DeleteSession(sessionID string) error
	Cleanup(maxAge time.Duration) (int, error)
	AnalyzeProgress(sessionID string) (session.ProgressReport, error)
	DetectStagnation(sessionID string) (session.StagnationReport, error)
}

// pipeline bundles every component the engine needs plus the session store,
// built once per CLI invocation from the resolved configuration.
type pipeline struct {
	cfg     *appconfig.Config
	bus     *events.Bus
	resolve *env.Resolver
	val     *validator.Validator
	procs   *procmanager.Manager
	parse   *parser.Parser
	judge   *judgeclient.Client
	tracker *progress.Tracker
	cache   *auditcache.Cache
	queue   *auditqueue.Queue
	store   sessionBackend
	engine  *engine.Engine
	logger  *logging.Logger
}

// sessionAdapter narrows sessionBackend to engine.SessionRecorder so the
// engine only depends on the two methods it actually calls.
type sessionAdapter struct {
	store sessionBackend
}

func (a sessionAdapter) AddAuditToHistory(sessionID string, thoughtNumber int, rev review.Review, cfg engine.SessionConfig) error {
	return a.store.AddAuditToHistory(sessionID, thoughtNumber, rev, cfg)
}

func (a sessionAdapter) RecordCodexFailure(sessionID string, thoughtNumber int, errMsg string) {
	a.store.RecordCodexFailure(sessionID, thoughtNumber, errMsg)
}

// logDir returns the directory the CLI's rotating debug.log lives in: a
// "logs" subdirectory of the session state directory, kept separate from
// the session JSON files themselves.
func logDir(cfg *appconfig.Config) string {
	return filepath.Join(cfg.Session.StateDir, "logs")
}

func newPipeline() (*pipeline, error) {
	cfg := appconfig.Get()
	logger, err := logging.NewLoggerWithRotation(logDir(cfg), "INFO", logging.DefaultRotationConfig())
	if err != nil {
		return nil, err
	}
	bus := events.NewBus()

	resolver := env.New(cfg.Judge.Binary, cfg.Judge.SearchPaths, cfg.Judge.ConfigDirEnvVar, ".", cfg.Judge.ExecutableGlobs)
	procs := procmanager.New(cfg.Process.MaxConcurrent, cfg.Process.QueueTimeout(), cfg.Process.CleanupTimeout(), bus)
	val := validator.New(resolver, procs, cfg.Judge.MinVersion, time.Duration(cfg.Judge.ValidationTimeout)*time.Second)
	responseParser := parser.New(logger)
	judge := judgeclient.New(resolver, val, procs, responseParser, cfg.Engine.MaxRetries, cfg.Process.InvocationTimeout(), logger)

	tracker := progress.New(cfg.Progress.Threshold(), cfg.Progress.TickInterval(), cfg.Process.MaxConcurrent, bus)
	cache := auditcache.New(cfg.Cache.Capacity, cfg.Cache.TTL())

	queue := auditqueue.New(auditqueue.Options{
		Capacity:       cfg.Queue.Capacity,
		MaxConcurrent:  cfg.Queue.MaxConcurrent,
		TickInterval:   cfg.Queue.TickInterval(),
		DefaultTimeout: cfg.Queue.JobTimeout(),
		MaxRetries:     cfg.Queue.MaxRetries,
		Bus:            bus,
	})

	fileStore := session.NewOS(cfg.Session.StateDir)
	var store sessionBackend = fileStore
	if cfg.Session.Compact {
		store = session.NewCompact(fileStore)
	}

	eng := engine.New(
		engine.Config{
			EnableAudit:   true,
			EngineTimeout: cfg.Engine.Timeout(),
			QueuePriority: cfg.Engine.DefaultPriority,
			QueueTimeout:  cfg.Queue.JobTimeout(),
			MaxRetries:    cfg.Queue.MaxRetries,
			PathEnv:       os.Getenv("PATH"),
		},
		cache, queue, judge, tracker,
		sessionAdapter{store: store},
		logger,
	)

	return &pipeline{
		cfg:     cfg,
		bus:     bus,
		resolve: resolver,
		val:     val,
		procs:   procs,
		parse:   responseParser,
		judge:   judge,
		tracker: tracker,
		cache:   cache,
		queue:   queue,
		store:   store,
		engine:  eng,
		logger:  logger,
	}, nil
}
