package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"workshop-timer/internal/config"
	"workshop-timer/internal/restapi"
	"workshop-timer/internal/services"
	"workshop-timer/internal/session"
	"workshop-timer/internal/store"
	"workshop-timer/internal/validation"
)

// App wires the client's components together for the CLI commands.
type App struct {
	Config     *config.Config
	Log        *zap.SugaredLogger
	Client     restapi.Client
	Store      store.SessionStore
	Machine    *session.Machine
	Activities services.ActivityService
}

// printNotifier surfaces session notices on stdout.
type printNotifier struct{}

func (printNotifier) Notify(action, message string) {
	fmt.Printf("[%s] %s\n", action, message)
}

// NewApp creates the application with the default wiring: HTTP client
// against the configured backend, SQLite session mirror under the data dir.
func NewApp(cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	if err := os.MkdirAll(cfg.Storage.Dir, os.FileMode(cfg.Storage.DirPermissions)); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	sessionStore, err := store.NewWithWriteTimeout(cfg.GetStorePath(), cfg.Storage.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := restapi.New(cfg)
	validator := validation.NewSessionValidatorWithConfig(validation.NewValidatorWithConfig(cfg))

	machine := session.New(session.Options{
		Client:            client,
		Store:             sessionStore,
		Logger:            log,
		Notifier:          printNotifier{},
		Validator:         validator,
		TickInterval:      cfg.Timer.TickInterval,
		PollInterval:      cfg.Timer.PollInterval,
		PollMissThreshold: cfg.Timer.PollMissThreshold,
	})

	return &App{
		Config:     cfg,
		Log:        log,
		Client:     client,
		Store:      sessionStore,
		Machine:    machine,
		Activities: services.NewActivityService(client),
	}, nil
}

// commandContext bounds a one-shot command's work with the configured
// application timeout, layered on the signal context. Long-lived modes
// (watch, stub-server) run on the raw signal context instead.
func (a *App) commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := 60 * time.Second
	if a.Config != nil && a.Config.Application.Timeout > 0 {
		timeout = a.Config.Application.Timeout
	}
	return context.WithTimeout(parent, timeout)
}

// EnsureReconciled resolves local vs. server session truth. Every timer
// command runs it first; nothing may interact with the session before
// reconciliation completes.
func (a *App) EnsureReconciled(ctx context.Context) error {
	if err := a.Machine.Reconcile(ctx); err != nil {
		return NewErrorHandler().Handle("sync session with server", err)
	}
	return nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.Store.Close()
}
