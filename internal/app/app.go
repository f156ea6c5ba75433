// Package app wires the lobby monitor, Hypixel client, stats pipeline
// and web surface into a single PocketBase application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hypestats/internal/config"
	"hypestats/internal/events"
	"hypestats/internal/hypixel"
	"hypestats/internal/jobs"
	"hypestats/internal/logger"
	"hypestats/internal/monitor"
	"hypestats/internal/pipeline"
	"hypestats/internal/ws"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"

	"github.com/spf13/cobra"
)

// App wraps PocketBase with application-specific components and methods
type App struct {
	*pocketbase.PocketBase // Embed PocketBase - all its methods are available

	Config      *config.Config
	Client      *hypixel.Client
	Monitor     *monitor.Monitor
	Broadcaster *ws.Broadcaster
	Pipeline    *pipeline.Pipeline
	Events      *events.Creator

	customLogger *slog.Logger
	logWriter    *logger.RotatingFileWriter

	// Version information (injected at build time via ldflags)
	Version string
	Commit  string
	Date    string
}

// New creates and initializes the hypestats application
func New() (*App, error) {
	return NewWithVersion("dev", "unknown", "unknown")
}

// NewWithVersion creates a new app with version information
func NewWithVersion(version, commit, date string) (*App, error) {
	app := &App{
		PocketBase: pocketbase.New(),
		Version:    version,
		Commit:     commit,
		Date:       date,
	}

	if err := app.setupServices(); err != nil {
		return nil, fmt.Errorf("failed to setup services: %w", err)
	}

	app.setupPlugins()

	return app, nil
}

// setupServices loads configuration and constructs the components that
// exist for the whole process lifetime.
func (app *App) setupServices() error {
	cfgVal := app.Store().GetOrSet("config", func() any {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return cfg
	})

	if err, ok := cfgVal.(error); ok {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfgVal.(*config.Config)

	if err := app.setupLogger(); err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}

	app.Client = app.Store().GetOrSet("hypixel", func() any {
		return hypixel.NewClient(app.Config.APIKey, app.Logger().With("component", "HYPIXEL"))
	}).(*hypixel.Client)

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		app.Client = nil
		app.Pipeline = nil
		return e.Next()
	})

	return nil
}

// setupPlugins configures PocketBase plugins and extra CLI commands
func (app *App) setupPlugins() {
	// Auto-migrate database
	migratecmd.MustRegister(app.PocketBase, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hypestats version %s\n", app.Version)
			fmt.Printf("Commit: %s\n", app.Commit)
			fmt.Printf("Date: %s\n", app.Date)
		},
	})

	app.RootCmd.AddCommand(newTailCommand(app))
}

// Bootstrap registers the lifecycle hooks
func (app *App) Bootstrap() error {
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		return app.onServe(e)
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		return app.onTerminate(e)
	})

	return nil
}

// onServe is called when the server starts
func (app *App) onServe(e *core.ServeEvent) error {
	log := app.Logger().With("component", "APP")
	log.Info("Starting hypestats application")

	if !config.Exists() {
		log.Info("No hypestats.yml found, running on defaults and environment overrides")
	}

	if err := app.Config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logPath, err := app.Config.ResolveLogPath()
	if err != nil {
		return fmt.Errorf("failed to resolve Minecraft log path: %w", err)
	}
	log.Info("Monitoring Minecraft log", "path", logPath)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if !app.Client.VerifyKey(ctx) {
			log.Warn("Hypixel API key could not be verified, stats lookups may fail")
		}
	}()

	app.Events = events.NewCreator(app.PocketBase)
	if err := app.Events.CreateAppStartedEvent(app.Version); err != nil {
		log.Warn("Failed to record app start event", "error", err)
	}

	app.Pipeline = pipeline.New(pipeline.Options{
		Source:   app.Client,
		Store:    &recordStore{app: app.PocketBase},
		Logger:   app.Logger().With("component", "PIPELINE"),
		CacheTTL: time.Duration(app.Config.StatsTTLMinutes) * time.Minute,
	})

	app.Broadcaster = ws.NewBroadcaster(app.Pipeline.Snapshot, app.Logger().With("component", "WS"))
	app.Pipeline.SetBroadcaster(app.Broadcaster)

	mon, err := monitor.New(monitor.Options{
		Path:         logPath,
		PollInterval: time.Duration(app.Config.PollingInterval) * time.Second,
		Logger:       app.Logger().With("component", "MONITOR"),
		OnPlayerList: func(players []string) {
			if err := app.Events.CreatePlayerListEvent(players); err != nil {
				log.Warn("Failed to record player list event", "error", err)
			}
			// Stat lookups hit the network, keep them off the poll
			// goroutine.
			go app.Pipeline.HandlePlayerList(players)
		},
		OnTeamUpdate: func(name, team string) {
			if err := recordTeamEvent(app.Events, name, team); err != nil {
				log.Warn("Failed to record team event", "error", err)
			}
			app.Pipeline.HandleTeamUpdate(name, team)
		},
		OnReset: func() {
			if err := app.Events.CreateLobbyResetEvent(); err != nil {
				log.Warn("Failed to record lobby reset event", "error", err)
			}
			app.Pipeline.HandleReset()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create log monitor: %w", err)
	}
	app.Monitor = mon

	registerWebRoutes(app, e)

	jobs.RegisterStatsRefresh(app.PocketBase, app.Pipeline, app.Logger().With("component", "REFRESH_JOB"))

	if err := app.Monitor.Start(); err != nil {
		return fmt.Errorf("failed to start log monitor: %w", err)
	}

	return e.Next()
}

// teamEventRecorder is the slice of events.Creator the monitor wiring
// needs.
type teamEventRecorder interface {
	CreateTeamJoinEvent(name, team string) error
	CreateTeamChatEvent(name string) error
}

// recordTeamEvent persists one team assignment under its proper event
// type. Team chat only proves "same team as us"; an explicit color
// comes from a join announcement.
func recordTeamEvent(rec teamEventRecorder, name, team string) error {
	if team == monitor.SameTeam {
		return rec.CreateTeamChatEvent(name)
	}
	return rec.CreateTeamJoinEvent(name, team)
}

// onTerminate is called when the application shuts down
func (app *App) onTerminate(e *core.TerminateEvent) error {
	if app.Monitor != nil {
		if err := app.Monitor.Stop(); err != nil {
			app.Logger().Warn("Monitor stop reported an error", "error", err)
		}
	}

	if app.Broadcaster != nil {
		app.Broadcaster.Close()
	}

	if app.Events != nil {
		if err := app.Events.CreateAppShutdownEvent(); err != nil {
			app.Logger().Warn("Failed to record app shutdown event", "error", err)
		}
	}

	if app.logWriter != nil {
		app.logWriter.Close()
	}

	return e.Next()
}

func (app *App) Logger() *slog.Logger {
	if app.customLogger != nil {
		return app.customLogger
	}
	return app.PocketBase.Logger()
}

// setupLogger tees application logs into a rotating file when one is
// configured. Must be called after app.Config is loaded.
func (app *App) setupLogger() error {
	if app.Config == nil {
		return fmt.Errorf("config not loaded")
	}

	logCfg := app.Config.Logging
	if logCfg.File == "" {
		return nil
	}

	level := logger.ParseLevel(logCfg.Level)
	fileHandler, writer, err := logger.NewFileHandler(logCfg.File, level, 10*1024*1024)
	if err != nil {
		return fmt.Errorf("failed to create log file handler: %w", err)
	}

	app.logWriter = writer
	app.customLogger = slog.New(logger.NewMultiHandler(
		app.PocketBase.Logger().Handler(),
		fileHandler,
	))

	return nil
}
