// Package wire provides dependency injection for rolesmith.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	cliadapter "github.com/example/rolesmith/internal/adapters/cli"
	"github.com/example/rolesmith/internal/adapters/discord"
	"github.com/example/rolesmith/internal/adapters/sqlite"
	"github.com/example/rolesmith/internal/app"
	"github.com/example/rolesmith/internal/bot"
	"github.com/example/rolesmith/internal/config"
	"github.com/example/rolesmith/internal/db"
	"github.com/example/rolesmith/internal/logging"
	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/scheduler"
)

// Job names.
const (
	JobCleanup      = "cleanup"
	JobQueueRecheck = "queue-recheck"
)

var (
	configPath string

	cfg      *config.Config
	logger   zerolog.Logger
	database *sql.DB
	settings *config.Settings

	guildRepo    *sqlite.GuildRepository
	adminRepo    *sqlite.AdminRoleRepository
	selectorRepo *sqlite.SelectorRepository
	sessionRepo  *sqlite.SessionRepository
	cleanupRepo  *sqlite.CleanupQueueRepository

	registryService primary.RegistryService

	storeOnce sync.Once
	storeErr  error

	platform         *discord.Platform
	reconcileService primary.ReconcileService
	jobs             *scheduler.Scheduler
	runtime          *bot.Bot

	runtimeOnce sync.Once
	runtimeErr  error
)

// SetConfigPath selects the configuration file. It must be called before any
// other function of this package; "" searches config.DefaultPaths.
func SetConfigPath(path string) {
	configPath = path
}

// Config returns the loaded configuration.
func Config() (*config.Config, error) {
	storeOnce.Do(initStore)
	return cfg, storeErr
}

// Database returns the singleton database connection.
func Database() (*sql.DB, error) {
	storeOnce.Do(initStore)
	return database, storeErr
}

// RegistryService returns the singleton RegistryService instance.
func RegistryService() (primary.RegistryService, error) {
	storeOnce.Do(initStore)
	return registryService, storeErr
}

// ReconcileService returns the singleton ReconcileService instance. It needs
// a platform connection, so the bot token must be configured.
func ReconcileService() (primary.ReconcileService, error) {
	runtimeOnce.Do(initRuntime)
	return reconcileService, runtimeErr
}

// Bot returns the fully wired bot process.
func Bot() (*bot.Bot, error) {
	runtimeOnce.Do(initRuntime)
	return runtime, runtimeErr
}

// initStore loads configuration and opens the registry store.
// This is called once via sync.Once.
func initStore() {
	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		storeErr = err
		return
	}
	if err := config.Validate(loaded, false); err != nil {
		storeErr = fmt.Errorf("invalid configuration: %w", err)
		return
	}
	cfg = loaded

	logger, err = logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		storeErr = err
		return
	}

	database, err = db.Open(cfg.Database.Path)
	if err != nil {
		storeErr = fmt.Errorf("failed to initialize database: %w", err)
		return
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	guildRepo = sqlite.NewGuildRepository(database)
	adminRepo = sqlite.NewAdminRoleRepository(database)
	selectorRepo = sqlite.NewSelectorRepository(database)
	sessionRepo = sqlite.NewSessionRepository(database)
	cleanupRepo = sqlite.NewCleanupQueueRepository(database)

	settings, err = config.NewSettings(cfg, sqlite.NewSettingsRepository(database))
	if err != nil {
		storeErr = err
		return
	}

	registryService = app.NewRegistryService(guildRepo, adminRepo, selectorRepo, cleanupRepo)
}

// initRuntime connects the platform adapter and builds every service on top
// of the store.
func initRuntime() {
	storeOnce.Do(initStore)
	if storeErr != nil {
		runtimeErr = storeErr
		return
	}
	if err := config.Validate(cfg, true); err != nil {
		runtimeErr = fmt.Errorf("invalid configuration: %w", err)
		return
	}

	var err error
	platform, err = discord.NewPlatform(cfg.Bot.Token, logger.With().Str("component", "discord").Logger())
	if err != nil {
		runtimeErr = err
		return
	}

	// Persisted settings win over the file configuration.
	if err := settings.Load(context.Background()); err != nil {
		runtimeErr = err
		return
	}

	notifier := app.NewNotificationService(guildRepo, platform, settings, logger.With().Str("component", "notify").Logger())
	executor := app.NewEffectExecutor(selectorRepo, guildRepo, cleanupRepo, notifier, logger)

	limiter := rate.NewLimiter(rate.Limit(cfg.Reconcile.FetchRate), cfg.Reconcile.FetchBurst)
	reconcileService = app.NewReconcileService(
		selectorRepo, guildRepo, cleanupRepo, platform, executor, notifier,
		limiter, cfg.Reconcile.GracePeriod, logger.With().Str("component", "reconcile").Logger(),
	)

	creation := app.NewCreationService(sessionRepo, registryService, platform, notifier, settings, logger.With().Str("component", "creation").Logger())
	selectors := app.NewSelectorService(registryService, platform, notifier, settings, logger)
	roles := app.NewRoleService(registryService, platform, notifier, logger)
	commands := app.NewCommandHandler(creation, registryService, selectors, platform, settings, logger)
	dispatcher := app.NewDispatcher(commands, creation, roles, registryService, notifier, logger)

	jobs, err = scheduler.New(logger, CleanupJob(reconcileService, cfg.Reconcile.CleanupInterval), QueueRecheckJob(reconcileService, cfg.Reconcile.QueueRecheckInterval))
	if err != nil {
		runtimeErr = err
		return
	}

	runtime = bot.New(platform, dispatcher, jobs, logger)
}

// RegistryAdapter returns a new RegistryAdapter writing to the given output.
func RegistryAdapter(out io.Writer) (*cliadapter.RegistryAdapter, error) {
	svc, err := RegistryService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewRegistryAdapter(svc, out), nil
}

// SweepAdapter returns a new SweepAdapter writing to the given output.
// Manual sweeps only use REST calls; the gateway stays closed.
func SweepAdapter(out io.Writer) (*cliadapter.SweepAdapter, error) {
	svc, err := ReconcileService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewSweepAdapter(svc, out), nil
}

// Platform returns the singleton platform adapter.
func Platform() (*discord.Platform, error) {
	runtimeOnce.Do(initRuntime)
	return platform, runtimeErr
}
